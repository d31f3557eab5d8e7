// Package calls holds the concrete Query factories a host actually
// invokes: one function per RPC, each building the wire body with
// wire.Writer, picking the right schema.Descriptor for its response, and
// wiring query.Hooks the way the C ancestor's query_msg_send /
// query_import_card / query.cpp subclasses did with virtual overrides.
// Every factory takes the issuing UserAgent and a Go-native callback that
// receives the decoded result, matching how query_msg_send's constructor
// takes a std::function; it returns the *query.Query, which the caller
// then Executes.
package calls

import (
	"github.com/mtprotogo/tgcore/schema"
)

// Request-side constructor tags; placeholders in the same stable-but-
// arbitrary family schema.RegisterBuiltins's response tags use (spec.md
// §1 Non-goals: a real schema compiler assigns these).
const (
	authSendCodeTag        uint32 = 0x768d5f4d
	authSignInTag          uint32 = 0xbcd51581
	authSignUpTag          uint32 = 0x1b067634
	authLogOutTag          uint32 = 0x5717da40
	authCheckPasswordTag   uint32 = 0xa63011e
	helpGetConfigTag       uint32 = 0xc4f9186b
	messagesSendMessageTag uint32 = 0xfa88427a
	usersGetFullUserTag    uint32 = 0xca30a5b1
	inputUserSelfTag       uint32 = 0x7f3b18ea
	inputPeerUserTag       uint32 = 0x7b8e7de6
	uploadSaveFilePartTag  uint32 = 0xb304a54f
)

// registry is the schema.Registry a call's response descriptor is looked
// up against; the host builds one with schema.RegisterBuiltins plus any
// call-specific descriptors and passes it to every factory. calls
// never imports useragent directly, matching how query only ever sees
// UserAgent through query.UserAgent (avoids a cycle, since useragent is
// what a host uses to drive these factories in the first place).
type registry = schema.Registry
