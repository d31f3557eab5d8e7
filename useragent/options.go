// Package useragent is the process-wide coordinator of spec.md §2.3: the
// UserAgent implementation query.UserAgent reaches back into for
// active/retry bookkeeping, DC selection and migration, and the
// password-needed flow. Its Options/NewOptions shape is adapted from
// cluster.Options/NewOptions (go-nano's node.go): a plain config struct
// filled by functional options, then frozen into a running coordinator by
// New, the same two-step Node construction go-nano uses.
package useragent

import (
	"github.com/google/uuid"
	"github.com/mtprotogo/tgcore/updates"
)

// Options configures a UserAgent before New builds it. NewOptions gives
// every field a usable default, Callback included (updates.NopCallback).
type Options struct {
	AppID         int32
	AppHash       string
	DeviceModel   string
	SystemVersion string
	AppVersion    string
	LangCode      string
	PFSEnabled    bool
	TimerParallel int
	Callback      updates.Callback

	// DeviceID is a device installation id, generated once per NewOptions
	// call unless overridden with WithDeviceID. It is not one of the
	// init_connection fields Session.NextEnvelope writes, and no tgcore
	// code reads it.
	DeviceID string
}

// NewOptions returns Options with the same defaults tgcli's demo client
// runs with, mirroring cluster.NewOptions's role of giving every field a
// sane zero value before WithXxx options are applied.
func NewOptions() Options {
	return Options{
		DeviceModel:   "tgcore",
		SystemVersion: "unknown",
		AppVersion:    "0.1",
		LangCode:      "en",
		TimerParallel: 1,
		Callback:      updates.NopCallback{},
		DeviceID:      uuid.NewString(),
	}
}

// Option mutates Options, the same functional-options shape the teacher's
// top-level options.go uses for cluster.Options.
type Option func(*Options)

func WithAppID(id int32) Option          { return func(o *Options) { o.AppID = id } }
func WithAppHash(hash string) Option     { return func(o *Options) { o.AppHash = hash } }
func WithDeviceModel(m string) Option    { return func(o *Options) { o.DeviceModel = m } }
func WithSystemVersion(v string) Option  { return func(o *Options) { o.SystemVersion = v } }
func WithAppVersion(v string) Option     { return func(o *Options) { o.AppVersion = v } }
func WithLangCode(c string) Option       { return func(o *Options) { o.LangCode = c } }
func WithPFSEnabled(v bool) Option       { return func(o *Options) { o.PFSEnabled = v } }
func WithTimerParallel(n int) Option     { return func(o *Options) { o.TimerParallel = n } }
func WithDeviceID(id string) Option      { return func(o *Options) { o.DeviceID = id } }
func WithCallback(cb updates.Callback) Option {
	return func(o *Options) { o.Callback = cb }
}

func (o Options) apply(opts []Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
