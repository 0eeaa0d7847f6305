package dynamo

// DynamoDB attribute names used in keys and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldIdentityID = "identity_id"
	fieldSessionID  = "session_id"
	fieldEmail      = "email"
	fieldEnable     = "enable"
	fieldUpdatedAt  = "updated_at"

	FieldDisplayName = "display_name"
	FieldPhone       = "phone"
	FieldBirthDate   = "birth_date"
	FieldBirthTime   = "birth_time"
	FieldBirthPlace  = "birth_place"
	FieldBio         = "bio"
	FieldChatRate    = "chat_rate"
	FieldVoiceRate   = "voice_rate"
	FieldVideoRate   = "video_rate"
	FieldOnline      = "online"
)

// GSI names.
const (
	indexEmail      = "email-index"
	indexIdentityID = "identity_id-index"
)
