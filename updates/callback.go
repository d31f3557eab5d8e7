// Package updates is the host-facing update surface: the Go counterpart of
// tgl_update_callback (original_source/tgl.h), plus the tgl_value_type
// credential-prompt enum useragent's password and login flows drive. This
// package holds no Query Subsystem logic itself; it exists so query and
// useragent can hand decoded results and state transitions to a host
// without either package depending on a concrete UI.
package updates

// TypingStatus mirrors tgl_typing_status: what a peer is doing in a chat.
type TypingStatus int

const (
	TypingNone TypingStatus = iota
	TypingText
	TypingCancel
	TypingRecordVideo
	TypingUploadVideo
	TypingRecordAudio
	TypingUploadAudio
	TypingUploadPhoto
	TypingUploadDocument
	TypingGeo
	TypingChooseContact
)

// UserStatus mirrors tgl_user_status_type.
type UserStatus int

const (
	StatusOffline UserStatus = iota
	StatusOnline
	StatusRecently
	StatusLastWeek
	StatusLastMonth
)

// UserUpdateType mirrors tgl_user_update_type: which field of a user
// changed in a user_update notification.
type UserUpdateType int

const (
	UserUpdateFirstName UserUpdateType = iota
	UserUpdateLastName
	UserUpdateUsername
	UserUpdatePhone
	UserUpdateBlocked
)

// ValueKind mirrors tgl_value_type: the shape of a credential the core is
// asking the host to prompt for via Callback.GetValues.
type ValueKind int

const (
	ValuePhoneNumber ValueKind = iota
	ValueCode
	ValueRegisterInfo
	ValueNewPassword
	ValueCurAndNewPassword
	ValueCurPassword
	ValueBotHash
)

// Message is the minimal decoded-message shape update notifications carry;
// calls packages that need richer fields layer their own struct and pass
// it through as Value in schema terms.
type Message struct {
	ID     int64
	ChatID int64
	FromID int64
	Text   string
	Date   int32
}

// File mirrors tgl_file_location closely enough for profile-picture and
// download notifications.
type File struct {
	DCID   int
	Volume int64
	LocalID int32
	Secret int64
}

// Callback is the full update surface a host implements, the Go
// counterpart of tgl_update_callback. Every method has a named no-op
// default via NopCallback so a host can embed it and override only what it
// needs.
type Callback interface {
	NewMessage(m *Message)
	MessageSent(oldMsgID, newMsgID int64, chatID int64)
	MessageDeleted(msgID int64)
	MarkedRead(msgIDs []int64)

	// GetValues asks the host to prompt for num values of kind, with
	// prompt as the human-readable text; respond calls deliver the
	// answers in order. This is the async bridge query's password flow
	// and the calls package's login flow block on.
	GetValues(kind ValueKind, prompt string, numValues int, respond func(answers []string))

	LoggedIn()
	LoggedOut()
	Started()
	OnFailedLogin()

	TypingStatusChanged(userID int64, status TypingStatus)
	ChatTypingStatusChanged(userID, chatID int64, status TypingStatus)
	UserStatusChanged(userID int64, status UserStatus, expires int32)

	UserRegistered(userID int64)
	NewAuthorization(device, location string)
	UserUpdated(userID int64, updateType UserUpdateType, value interface{})
	UserDeleted(userID int64)

	ProfilePictureUpdated(peerID int64, photoID int64, small, big *File)
	ChatUpdated(chatID int64, peersNum int, admin int64, date int32, title string)
	ChatUserAdded(chatID, userID, inviterID int64, date int32)
	ChatUserDeleted(chatID, userID int64)

	OurID(id int64)
	Notification(kind, message string)
	DCUpdated(dcID int)
	ActiveDCChanged(newDCID int)
}

// NopCallback implements Callback with no-op methods; embed it in a host
// type to override only the handlers it cares about.
type NopCallback struct{}

func (NopCallback) NewMessage(*Message)                                       {}
func (NopCallback) MessageSent(int64, int64, int64)                           {}
func (NopCallback) MessageDeleted(int64)                                      {}
func (NopCallback) MarkedRead([]int64)                                        {}
func (NopCallback) GetValues(ValueKind, string, int, func(answers []string))  {}
func (NopCallback) LoggedIn()                                                 {}
func (NopCallback) LoggedOut()                                                {}
func (NopCallback) Started()                                                  {}
func (NopCallback) OnFailedLogin()                                            {}
func (NopCallback) TypingStatusChanged(int64, TypingStatus)                   {}
func (NopCallback) ChatTypingStatusChanged(int64, int64, TypingStatus)        {}
func (NopCallback) UserStatusChanged(int64, UserStatus, int32)                {}
func (NopCallback) UserRegistered(int64)                                      {}
func (NopCallback) NewAuthorization(string, string)                          {}
func (NopCallback) UserUpdated(int64, UserUpdateType, interface{})            {}
func (NopCallback) UserDeleted(int64)                                         {}
func (NopCallback) ProfilePictureUpdated(int64, int64, *File, *File)          {}
func (NopCallback) ChatUpdated(int64, int, int64, int32, string)              {}
func (NopCallback) ChatUserAdded(int64, int64, int64, int32)                  {}
func (NopCallback) ChatUserDeleted(int64, int64)                              {}
func (NopCallback) OurID(int64)                                              {}
func (NopCallback) Notification(string, string)                              {}
func (NopCallback) DCUpdated(int)                                            {}
func (NopCallback) ActiveDCChanged(int)                                      {}
