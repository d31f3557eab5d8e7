package calls

import (
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// SendCode issues auth.sendCode for phoneNumber, the first step of the
// login flow useragent.PromptPhoneNumber feeds. done receives the decoded
// auth.sentCode fields (phone_code_hash, timeout) on success.
func SendCode(ua query.UserAgent, reg *registry, phoneNumber string, done func(ok bool, phoneCodeHash string, timeout int32)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(authSendCodeTag)
	w.PutString(phoneNumber)

	return query.New(ua, reg, "send code", query.FlagLogin|query.FlagForce, w.Bytes(), sentCodeDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, "", 0)
				return
			}
			hash, _ := s.Fields["phone_code_hash"].(string)
			timeout, _ := s.Fields["timeout"].(int32)
			done(true, hash, timeout)
		},
		OnError: func(code int, msg string) { done(false, "", 0) },
	})
}

// SignIn issues auth.signIn with the code the host read back from
// useragent.PromptCode, completing login for an already-registered
// number. On success it calls ua.Login() exactly as
// query::handle_session_password_needed's own successful-unlock path
// does for the 2FA case, then reports the signed-in user's id.
func SignIn(ua query.UserAgent, reg *registry, phoneNumber, phoneCodeHash, code string, done func(ok bool, userID int64)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(authSignInTag)
	w.PutString(phoneNumber)
	w.PutString(phoneCodeHash)
	w.PutString(code)

	return query.New(ua, reg, "sign in", query.FlagLogin, w.Bytes(), fullUserDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, 0)
				return
			}
			ua.Login()
			id, _ := s.Fields["id"].(int64)
			done(true, id)
		},
		OnError: func(code int, msg string) { done(false, 0) },
	})
}

// SignUp issues auth.signUp, registering a new account with the name
// useragent.PromptRegisterInfo collected (tgl_value_type::tgl_register_info).
func SignUp(ua query.UserAgent, reg *registry, phoneNumber, phoneCodeHash, firstName, lastName string, done func(ok bool, userID int64)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(authSignUpTag)
	w.PutString(phoneNumber)
	w.PutString(phoneCodeHash)
	w.PutString(firstName)
	w.PutString(lastName)

	return query.New(ua, reg, "sign up", query.FlagLogin, w.Bytes(), fullUserDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, 0)
				return
			}
			ua.Login()
			id, _ := s.Fields["id"].(int64)
			done(true, id)
		},
		OnError: func(code int, msg string) { done(false, 0) },
	})
}

// LogOut issues auth.logOut. FlagLogout marks it so the owning Connection
// remembers it via SetLogoutQuery and Ack synthesizes a bool_true result
// for it if the server closes the socket right after acking (query.cpp's
// ack() workaround, reproduced in query/lifecycle.go's Ack). WillSend
// flips its Connection's is_logging_out flag so check_logging_out rejects
// ordinary queries with 600/"LOGGING_OUT" until the call resolves; a
// two-phase construction (q declared before query.New runs) lets the
// hooks read q.Client() once Execute has picked a connection.
func LogOut(ua query.UserAgent, reg *registry, done func(ok bool)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(authLogOutTag)

	var q *query.Query
	q = query.New(ua, reg, "log out", query.FlagLogout, w.Bytes(), boolDescriptorFor(reg), query.Hooks{
		WillSend: func() {
			if c := q.Client(); c != nil {
				ua.SetClientLoggingOut(c, true)
			}
		},
		OnAnswer: func(v schema.Value) {
			if c := q.Client(); c != nil {
				ua.SetClientLoggingOut(c, false)
			}
			ok, _ := v.(bool)
			if ok {
				ua.Logout()
			}
			done(ok)
		},
		OnError: func(code int, msg string) {
			if c := q.Client(); c != nil {
				ua.SetClientLoggingOut(c, false)
			}
			done(false)
		},
	})
	return q
}

// CheckPassword issues account.checkPassword with a pre-derived SRP-style
// hash (useragent/password.go's derivePasswordHash), the call
// useragent.CheckPassword's PasswordChecker.Verify wraps.
func CheckPassword(ua query.UserAgent, reg *registry, hash []byte, done func(ok bool)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(authCheckPasswordTag)
	w.PutBytes(hash)

	return query.New(ua, reg, "check password", query.FlagLogin, w.Bytes(), boolDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			ok, _ := v.(bool)
			done(ok)
		},
		OnError: func(code int, msg string) { done(false) },
	})
}
