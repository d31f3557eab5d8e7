package calls

import "github.com/mtprotogo/tgcore/schema"

// lookupOrNil returns reg's descriptor for tag, or nil if the host never
// registered schema.RegisterBuiltins on this Registry — a factory then
// simply has no way to decode its own answer, which HandleResult surfaces
// as an error rather than panicking.
func lookupOrNil(reg *registry, tag uint32) schema.Descriptor {
	d, _ := reg.Lookup(tag)
	return d
}

func boolDescriptorFor(reg *registry) schema.Descriptor { return lookupOrNil(reg, schema.BoolTrueTag) }
func configDescriptorFor(reg *registry) schema.Descriptor {
	return lookupOrNil(reg, schema.ConfigTag)
}
func sentCodeDescriptorFor(reg *registry) schema.Descriptor {
	return lookupOrNil(reg, schema.SentCodeTag)
}
func fullUserDescriptorFor(reg *registry) schema.Descriptor {
	return lookupOrNil(reg, schema.FullUserTag)
}
func messagesSentMessageDescriptorFor(reg *registry) schema.Descriptor {
	return lookupOrNil(reg, schema.MessagesSentMessageTag)
}
func inputFileDescriptorFor(reg *registry) schema.Descriptor {
	return lookupOrNil(reg, schema.InputFileTag)
}
