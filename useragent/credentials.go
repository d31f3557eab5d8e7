package useragent

import "github.com/mtprotogo/tgcore/updates"

// PromptPhoneNumber asks the host for a phone number, the first credential
// a login flow needs (tgl_value_type::tgl_phone_number).
func (ua *UserAgent) PromptPhoneNumber() chan string {
	return ua.promptOne(updates.ValuePhoneNumber, "Enter your phone number")
}

// PromptCode asks the host for the SMS/app login code
// (tgl_value_type::tgl_code).
func (ua *UserAgent) PromptCode() chan string {
	return ua.promptOne(updates.ValueCode, "Enter the login code you received")
}

// PromptRegisterInfo asks the host for a new account's first and last name
// (tgl_value_type::tgl_register_info), returned as a 2-element slice.
func (ua *UserAgent) PromptRegisterInfo() chan []string {
	return ua.promptMany(updates.ValueRegisterInfo, "This number is not registered. Enter your name", 2)
}

// PromptBotHash asks for a bot login token (tgl_value_type::tgl_bot_hash).
func (ua *UserAgent) PromptBotHash() chan string {
	return ua.promptOne(updates.ValueBotHash, "Enter your bot token")
}

// promptOne wraps Callback.GetValues for the common single-answer case,
// returning a channel so calls-package login flows can select on it
// alongside a cancellation context.
func (ua *UserAgent) promptOne(kind updates.ValueKind, prompt string) chan string {
	out := make(chan string, 1)
	ua.Callback.GetValues(kind, prompt, 1, func(answers []string) {
		if len(answers) == 0 {
			out <- ""
			return
		}
		out <- answers[0]
	})
	return out
}

func (ua *UserAgent) promptMany(kind updates.ValueKind, prompt string, n int) chan []string {
	out := make(chan []string, 1)
	ua.Callback.GetValues(kind, prompt, n, func(answers []string) {
		out <- answers
	})
	return out
}
