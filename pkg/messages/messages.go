package messages

const (
	// ErrUserErrorProcessing is the message sent to a user when a command fails internally.
	ErrUserErrorProcessing = "Something went wrong processing your request. Please try again later."

	// ErrTicketNotFound is the message sent when a channel has no tracked ticket.
	ErrTicketNotFound = "No ticket was found for this channel."

	// ErrNotTicketOwnerOrStaff is the message sent when a user may not close a ticket.
	ErrNotTicketOwnerOrStaff = "Only the ticket owner or a staff member can close this ticket."

	// ErrMissingManageChannels is the message sent when a force close is attempted without permission.
	ErrMissingManageChannels = "You need the Manage Channels permission to force close a ticket."

	// ErrReasonRequired is the message sent when a ticket is opened without the required reason.
	ErrReasonRequired = "Please provide a reason for opening this ticket."

	// TicketCloseCancelled is the message sent when a close confirmation is declined.
	TicketCloseCancelled = "Ticket close cancelled. The ticket remains open."

	// TicketCloseConfirm is the prompt shown before a manual close proceeds.
	TicketCloseConfirm = "Are you sure you want to close this ticket? This cannot be undone."

	// TicketClosing is the acknowledgement sent once a close has been accepted.
	TicketClosing = "Closing this ticket. The channel will be deleted shortly."

	// ErrCloseConfirmExpired is the message sent when a confirmation button is pressed too late.
	ErrCloseConfirmExpired = "This confirmation has expired. Run the close command again."

	// ErrUnknownTicketType is the message sent when the requested type has no configured button.
	// It takes the requested type and the list of known types.
	ErrUnknownTicketType = "Unknown ticket type %q. Available types: %s"

	// ErrDuplicateTicket is the message sent when the user already has an open ticket of the
	// requested type. It takes the channel ID of the existing ticket.
	ErrDuplicateTicket = "You already have an open ticket of this type: <#%s>"

	// ErrStaffOnly is the message sent when a non staff member tries to manage ticket members.
	ErrStaffOnly = "Only staff members can manage ticket members."

	// ErrMemberNotFound is the message sent when a member lookup fails. It takes the query.
	ErrMemberNotFound = "User %q was not found in this guild."

	// MemberAdded is the message sent when a member has been added to a ticket. It takes
	// the member's user ID.
	MemberAdded = "<@%s> has been added to the ticket."

	// MemberRemoved is the message sent when a member has been removed from a ticket. It
	// takes the member's user ID.
	MemberRemoved = "<@%s> has been removed from the ticket."

	// VoiceChannelCreated is the message sent when a ticket voice channel has been created.
	// It takes the voice channel ID.
	VoiceChannelCreated = "Voice channel created: <#%s>"

	// ErrNoVoiceChannel is the message sent when a ticket type has no voice channel configured.
	ErrNoVoiceChannel = "This ticket type has no voice channel configured."

	// PanelCooldown is the message sent when a panel button is pressed too frequently.
	PanelCooldown = "Please wait a moment before using the panel again."

	// ErrUnknownPanel is the message sent when the requested panel is not configured.
	// It takes the requested panel and the list of known panels.
	ErrUnknownPanel = "Unknown panel %q. Available panels: %v"

	// PanelPosted is the acknowledgement sent after a panel has been posted.
	PanelPosted = "Panel %q has been posted."
)
