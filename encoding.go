package docrel

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeValue appends the msgpack encoding of objVal to buf. Map keys are
// sorted so equal values always encode to equal bytes.
func encodeValue(buf []byte, objVal reflect.Value) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.EncodeValue(objVal)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %T using MsgPack: %w", objVal.Interface(), err))
	}
	return bb.Buf
}

// decodeValue decodes buf into objPtrVal. Untyped values (maps, interfaces)
// come back with integers as int64/uint64 and floats as float64.
func decodeValue(buf []byte, objPtrVal reflect.Value) error {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	dec.UseLooseInterfaceDecoding(true)
	err := dec.DecodeValue(objPtrVal)
	msgpack.PutDecoder(dec)
	if err != nil {
		return dataErrf(buf, 0, err, "failed to decode msgpack into %T", objPtrVal.Interface())
	}
	return nil
}

type bytesBuilder struct {
	Buf []byte
}

func (bb *bytesBuilder) Write(p []byte) (int, error) {
	bb.Buf = append(bb.Buf, p...)
	return len(p), nil
}
