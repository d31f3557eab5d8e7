package schema

import "github.com/mtprotogo/tgcore/wire"

// Constructor tags for the response shapes this package decodes. Values are
// placeholders in the same numeric family as the envelope tags in
// wire.go — a real deployment would source these from the compiled TL
// schema (spec.md §1 Non-goals), but the Query Subsystem only needs them to
// be stable and distinct for its own tests. Exported so the calls package
// can look descriptors up by tag from a caller-supplied Registry without
// this package exporting its descriptor types directly.
const (
	BoolTrueTag            uint32 = wire.BoolTrue
	BoolFalseTag           uint32 = wire.BoolFalse
	ConfigTag              uint32 = 0x2e54dd74
	SentCodeTag            uint32 = 0x5e002502
	FullUserTag            uint32 = 0x8ea4a881
	MessagesSentMessageTag uint32 = 0x9fc5b33f
	InputFileTag           uint32 = 0xf52ff27f
)

const (
	boolTrueTag            = BoolTrueTag
	boolFalseTag           = BoolFalseTag
	configTag              = ConfigTag
	sentCodeTag            = SentCodeTag
	fullUserTag            = FullUserTag
	messagesSentMessageTag = MessagesSentMessageTag
	inputFileTag           = InputFileTag
)

// RegisterBuiltins installs the descriptors below into r. A host populates
// the Registry it passes to the calls factories this way (cmd/tgcli does);
// the calls package registers no descriptors of its own.
func RegisterBuiltins(r *Registry) {
	r.Register(boolDescriptor{tag: boolTrueTag})
	r.Register(boolDescriptor{tag: boolFalseTag})
	r.Register(configDescriptor{})
	r.Register(sentCodeDescriptor{})
	r.Register(fullUserDescriptor{})
	r.Register(messagesSentMessageDescriptor{})
	r.Register(inputFileDescriptor{})
}

// boolDescriptor decodes the two-constructor Bool type (boolTrue/boolFalse
// share one Go type since both skip zero extra bytes and only the tag
// value differs). It is registered twice, once per tag.
type boolDescriptor struct{ tag uint32 }

func (d boolDescriptor) Constructor() uint32 { return d.tag }
func (boolDescriptor) Skip(r *wire.Reader) error {
	_, err := r.Uint()
	return err
}
func (boolDescriptor) Fetch(r *wire.Reader) (Value, error) {
	tag, err := r.Uint()
	if err != nil {
		return nil, err
	}
	return tag == boolTrueTag, nil
}

// configDescriptor decodes a minimal help.config shape: the fields Query's
// migration and DC-dial logic actually reads (dc options, chat/message size
// limits), not the full production schema.
type configDescriptor struct{}

func (configDescriptor) Constructor() uint32 { return configTag }

func (configDescriptor) Skip(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.Int(); err != nil { // date
		return err
	}
	if _, err := r.Int(); err != nil { // this_dc
		return err
	}
	n, err := r.Int()
	if err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		if err := skipDCOption(r); err != nil {
			return err
		}
	}
	if _, err := r.Int(); err != nil { // chat_size_max
		return err
	}
	if _, err := r.Int(); err != nil { // megagroup_size_max
		return err
	}
	return nil
}

func (configDescriptor) Fetch(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	date, err := r.Int()
	if err != nil {
		return nil, err
	}
	thisDC, err := r.Int()
	if err != nil {
		return nil, err
	}
	n, err := r.Int()
	if err != nil {
		return nil, err
	}
	options := make([]Value, 0, n)
	for i := int32(0); i < n; i++ {
		opt, err := fetchDCOption(r)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	chatSizeMax, err := r.Int()
	if err != nil {
		return nil, err
	}
	megagroupSizeMax, err := r.Int()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "config", Fields: map[string]Value{
		"date":               date,
		"this_dc":            thisDC,
		"dc_options":         options,
		"chat_size_max":      chatSizeMax,
		"megagroup_size_max": megagroupSizeMax,
	}}, nil
}

func skipDCOption(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.Int(); err != nil { // id
		return err
	}
	if _, err := r.String(); err != nil { // ip_address
		return err
	}
	if _, err := r.Int(); err != nil { // port
		return err
	}
	return nil
}

func fetchDCOption(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	id, err := r.Int()
	if err != nil {
		return nil, err
	}
	ip, err := r.String()
	if err != nil {
		return nil, err
	}
	port, err := r.Int()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "dcOption", Fields: map[string]Value{
		"id": id, "ip_address": ip, "port": port,
	}}, nil
}

// sentCodeDescriptor decodes auth.sentCode, the response to auth.sendCode
// that UserAgent's login flow waits on (tgl_value_type::tgl_code in
// tgl.h).
type sentCodeDescriptor struct{}

func (sentCodeDescriptor) Constructor() uint32 { return sentCodeTag }

func (sentCodeDescriptor) Skip(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.String(); err != nil { // phone_code_hash
		return err
	}
	if _, err := r.Int(); err != nil { // timeout
		return err
	}
	return nil
}

func (sentCodeDescriptor) Fetch(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	hash, err := r.String()
	if err != nil {
		return nil, err
	}
	timeout, err := r.Int()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "auth.sentCode", Fields: map[string]Value{
		"phone_code_hash": hash,
		"timeout":         timeout,
	}}, nil
}

// fullUserDescriptor decodes users.fullUser, the response OnAnswer sees for
// users.getFullUser.
type fullUserDescriptor struct{}

func (fullUserDescriptor) Constructor() uint32 { return fullUserTag }

func (fullUserDescriptor) Skip(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.Long(); err != nil { // id
		return err
	}
	if _, err := r.String(); err != nil { // about
		return err
	}
	if _, err := r.Uint(); err != nil { // blocked (bool constructor)
		return err
	}
	return nil
}

func (fullUserDescriptor) Fetch(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	id, err := r.Long()
	if err != nil {
		return nil, err
	}
	about, err := r.String()
	if err != nil {
		return nil, err
	}
	blockedTag, err := r.Uint()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "userFull", Fields: map[string]Value{
		"id":      id,
		"about":   about,
		"blocked": blockedTag == boolTrueTag,
	}}, nil
}

// messagesSentMessageDescriptor decodes messages.sentMessage, the response
// to messages.sendMessage that confirms delivery and carries the server's
// canonical message id/date/pts — the shape calls.SendMessage decodes.
type messagesSentMessageDescriptor struct{}

func (messagesSentMessageDescriptor) Constructor() uint32 { return messagesSentMessageTag }

func (messagesSentMessageDescriptor) Skip(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.Int(); err != nil { // id
		return err
	}
	if _, err := r.Int(); err != nil { // date
		return err
	}
	if _, err := r.Int(); err != nil { // pts
		return err
	}
	if _, err := r.Int(); err != nil { // pts_count
		return err
	}
	return nil
}

func (messagesSentMessageDescriptor) Fetch(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	id, err := r.Int()
	if err != nil {
		return nil, err
	}
	date, err := r.Int()
	if err != nil {
		return nil, err
	}
	pts, err := r.Int()
	if err != nil {
		return nil, err
	}
	ptsCount, err := r.Int()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "messages.sentMessage", Fields: map[string]Value{
		"id": id, "date": date, "pts": pts, "pts_count": ptsCount,
	}}, nil
}

// inputFileDescriptor decodes upload.sentFile's InputFile confirmation,
// the handle for a completed upload.saveFilePart sequence.
type inputFileDescriptor struct{}

func (inputFileDescriptor) Constructor() uint32 { return inputFileTag }

func (inputFileDescriptor) Skip(r *wire.Reader) error {
	if _, err := r.Uint(); err != nil {
		return err
	}
	if _, err := r.Long(); err != nil { // id
		return err
	}
	if _, err := r.Int(); err != nil { // parts
		return err
	}
	if _, err := r.String(); err != nil { // name
		return err
	}
	if _, err := r.String(); err != nil { // md5_checksum
		return err
	}
	return nil
}

func (inputFileDescriptor) Fetch(r *wire.Reader) (Value, error) {
	if _, err := r.Uint(); err != nil {
		return nil, err
	}
	id, err := r.Long()
	if err != nil {
		return nil, err
	}
	parts, err := r.Int()
	if err != nil {
		return nil, err
	}
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	md5, err := r.String()
	if err != nil {
		return nil, err
	}
	return &Struct{Name: "inputFile", Fields: map[string]Value{
		"id": id, "parts": parts, "name": name, "md5_checksum": md5,
	}}, nil
}
