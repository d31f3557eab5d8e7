package calls

import (
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// SaveFilePart issues one upload.saveFilePart chunk, FlagFileTransfer
// marking it for the longer is_file_transfer timeout (§4.6) and the
// Connection.Send byte counter (connection.TransferStats) a host's
// progress UI polls.
func SaveFilePart(ua query.UserAgent, reg *registry, fileID int64, filePart int32, bytes []byte, done func(ok bool)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(uploadSaveFilePartTag)
	w.PutLong(fileID)
	w.PutInt(filePart)
	w.PutBytes(bytes)

	return query.New(ua, reg, "save file part", query.FlagFileTransfer, w.Bytes(), boolDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			ok, _ := v.(bool)
			done(ok)
		},
		OnError: func(code int, msg string) { done(false) },
	})
}
