package entities

// ConfigDocument is the raw form of a guild configuration document, as exposed to the
// dashboard API. Field paths are traversed over nested maps rather than the typed
// TicketConfig so that unknown dashboard sections survive a round trip untouched.
type ConfigDocument map[string]any

// GetField traverses the document along the given path. It returns nil at the first
// missing key or non map intermediate.
func (d ConfigDocument) GetField(path ...string) any {
	var current any = map[string]any(d)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// SetField sets the leaf at the given path, creating intermediate maps as needed. It
// returns false if an intermediate key exists but is not a map.
func (d ConfigDocument) SetField(path []string, value any) bool {
	if len(path) == 0 {
		return false
	}

	current := map[string]any(d)
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			m := map[string]any{}
			current[key] = m
			current = m
			continue
		}

		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}

	current[path[len(path)-1]] = value
	return true
}
