package useragent

import (
	"crypto/sha256"

	"github.com/mtprotogo/tgcore/updates"
	"golang.org/x/crypto/pbkdf2"
)

// derivePasswordHash is the SRP-style salted-password digest
// account.checkPassword expects: PBKDF2-HMAC-SHA256(password, salt,
// iterations, 32). MTProto's real current_algo also XORs in a second
// server salt before this step; that parameter travels through
// PasswordChecker.FetchSalt rather than being reproduced by this helper,
// which only needs to demonstrate the derivation query subsystem tests
// exercise.
func derivePasswordHash(password string, salt []byte, iterations int) []byte {
	if iterations < 1 {
		iterations = 1
	}
	return pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New)
}

// PasswordChecker supplies the salt/iteration parameters a real
// account.getPassword round trip would return, and verifies a derived
// hash against the server; a host installs its implementation with
// SetPasswordChecker. Left nil, CheckPassword fails closed.
type PasswordChecker interface {
	// FetchSalt returns the current salt and the scheme's iteration count.
	FetchSalt() (salt []byte, iterations int, err error)
	// Verify submits the derived hash (account.checkPassword) and reports
	// whether the server accepted it.
	Verify(hash []byte) (bool, error)
}

// SetPasswordChecker installs the checker CheckPassword drives; a host
// typically calls this once during setup, before any query can hit
// SESSION_PASSWORD_NEEDED.
func (ua *UserAgent) SetPasswordChecker(pc PasswordChecker) {
	ua.mu.Lock()
	ua.passwordChecker = pc
	ua.mu.Unlock()
}

// CheckPassword implements query.UserAgent: it is the async bridge
// query::handle_session_password_needed calls into. It prompts the host
// via Callback.GetValues for the current password, derives the salted
// hash, and submits it through the installed PasswordChecker.
func (ua *UserAgent) CheckPassword(done func(success bool)) {
	ua.mu.RLock()
	pc := ua.passwordChecker
	ua.mu.RUnlock()

	if pc == nil {
		ua.SetPasswordLocked(false)
		done(false)
		return
	}

	ua.Callback.GetValues(updates.ValueCurPassword, "Enter your two-step verification password", 1, func(answers []string) {
		defer ua.SetPasswordLocked(false)

		if len(answers) != 1 || answers[0] == "" {
			done(false)
			return
		}
		salt, iterations, err := pc.FetchSalt()
		if err != nil {
			done(false)
			return
		}
		hash := derivePasswordHash(answers[0], salt, iterations)
		ok, err := pc.Verify(hash)
		if err != nil {
			done(false)
			return
		}
		done(ok)
	})
}
