package ticketing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupArtifact is the persisted form of one ticket backup.
type BackupArtifact struct {
	// ChannelID is the ID of the ticket channel.
	ChannelID string `json:"channel_id"`

	// ChannelName is the name of the ticket channel at close time.
	ChannelName string `json:"channel_name"`

	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id"`

	// BackupDate is the time the backup was taken.
	BackupDate time.Time `json:"backup_date"`

	// Messages is the full message history of the channel, oldest first.
	Messages []HistoryMessage `json:"messages"`
}

// BackupWriter writes ticket message history backups to disk as JSON artifacts, named
// by channel ID and close timestamp.
type BackupWriter struct {
	// dir is the directory that artifacts are written to.
	dir string

	// now returns the current time.
	now func() time.Time
}

// NewBackupWriter creates a new backup writer.
func NewBackupWriter(dir string) *BackupWriter {
	return &BackupWriter{
		dir: dir,
		now: time.Now,
	}
}

// Write writes one backup artifact and returns its path.
func (b *BackupWriter) Write(guildID, channelID, channelName string, messages []HistoryMessage) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating backup directory: %w", err)
	}

	now := b.now()
	artifact := &BackupArtifact{
		ChannelID:   channelID,
		ChannelName: channelName,
		GuildID:     guildID,
		BackupDate:  now,
		Messages:    messages,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding backup: %w", err)
	}

	path := filepath.Join(b.dir, fmt.Sprintf("ticket_%s_%s.json", channelID, now.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing backup: %w", err)
	}
	return path, nil
}
