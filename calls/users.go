package calls

import (
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// GetFullUserSelf issues users.getFullUser(input_user_self), the probe
// query.cpp's handle_session_password_needed issues right after a
// successful check_password to confirm the session actually unlocked
// (query_user_info's role in the original, folded here into one
// factory rather than a dedicated query_user_info subclass).
func GetFullUserSelf(ua query.UserAgent, reg *registry, done func(ok bool, about string)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(usersGetFullUserTag)
	w.PutUint(inputUserSelfTag)

	return query.New(ua, reg, "get full user (self)", 0, w.Bytes(), fullUserDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, "")
				return
			}
			about, _ := s.Fields["about"].(string)
			done(true, about)
		},
		OnError: func(code int, msg string) { done(false, "") },
	})
}

// GetFullUser issues users.getFullUser(input_user) for a specific peer id
// and access hash, the general form GetFullUserSelf specializes.
func GetFullUser(ua query.UserAgent, reg *registry, userID, accessHash int64, done func(ok bool, about string)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(usersGetFullUserTag)
	w.PutUint(inputPeerUserTag)
	w.PutLong(userID)
	w.PutLong(accessHash)

	return query.New(ua, reg, "get full user", 0, w.Bytes(), fullUserDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, "")
				return
			}
			about, _ := s.Fields["about"].(string)
			done(true, about)
		},
		OnError: func(code int, msg string) { done(false, "") },
	})
}
