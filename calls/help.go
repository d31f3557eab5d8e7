package calls

import (
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// GetConfig issues help.getConfig, the one call every Connection may send
// before being fully configured or logged in (FlagForce), matching how
// query.cpp's own bootstrap queries bypass check_pending's gates.
func GetConfig(ua query.UserAgent, reg *registry, done func(ok bool, thisDC int32)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(helpGetConfigTag)

	return query.New(ua, reg, "get config", query.FlagForce, w.Bytes(), configDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, 0)
				return
			}
			thisDC, _ := s.Fields["this_dc"].(int32)
			done(true, thisDC)
		},
		OnError: func(code int, msg string) { done(false, 0) },
	})
}
