package logging

const (
	// KeyAppName is the key for the application name.
	KeyAppName = `app`

	// KeyError is the key for an error.
	KeyError = `err`

	// KeyDal is the key for the data access layer.
	KeyDal = `dal`

	// KeyGuildID is the key for a guild ID.
	KeyGuildID = `guild_id`

	// KeyChannelID is the key for a channel ID.
	KeyChannelID = `channel_id`

	// KeyUserID is the key for a user ID.
	KeyUserID = `user_id`
)
