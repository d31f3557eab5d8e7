package tgcore

import "github.com/mtprotogo/tgcore/useragent"

// Option mutates a useragent.Options, the same shape nano.Option mutates
// cluster.Options with. tgcore does not wrap each useragent.WithXxx
// function in a new closure; it re-exports them directly since they
// already close over the right type.
type Option = useragent.Option

var (
	// WithAppID sets the api_id init_connection sends (§6 Envelope level).
	WithAppID = useragent.WithAppID
	// WithAppHash sets the application's api_hash.
	WithAppHash = useragent.WithAppHash
	// WithDeviceModel overrides the device_model init_connection field.
	WithDeviceModel = useragent.WithDeviceModel
	// WithSystemVersion overrides the system_version init_connection field.
	WithSystemVersion = useragent.WithSystemVersion
	// WithAppVersion overrides the app_version init_connection field.
	WithAppVersion = useragent.WithAppVersion
	// WithLangCode overrides the lang_code init_connection field.
	WithLangCode = useragent.WithLangCode
	// WithPFSEnabled toggles Perfect Forward Secrecy key negotiation.
	WithPFSEnabled = useragent.WithPFSEnabled
	// WithTimerParallel sizes the timer.Service worker pool backing every
	// Query's retry and timeout alarms.
	WithTimerParallel = useragent.WithTimerParallel
	// WithDeviceID overrides the random device installation id
	// (defaults to a fresh google/uuid value).
	WithDeviceID = useragent.WithDeviceID
	// WithCallback installs the host's updates.Callback implementation.
	WithCallback = useragent.WithCallback
)
