// Package bytes holds little-endian helpers shared by the binary codecs: fixed
// layout struct conversion and the 7-bit encoded integers and length-prefixed
// strings used by .NET BinaryReader/BinaryWriter style formats.
package bytes

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"
)

// BytesFromStruct serializes the fields of a struct to an array of bytes in the
// order in which the fields are declared and returns total number of bytes converted.
// Panics if data is not a struct or pointer to struct, or if there was an error writing a field.
func BytesFromStruct(data interface{}) ([]byte, int) {
	val := reflect.ValueOf(data)
	valKind := val.Kind()

	if valKind == reflect.Ptr {
		val = reflect.ValueOf(data).Elem()
		valKind = val.Kind()
	}

	if valKind != reflect.Struct {
		panic("BytesFromStruct(): data must of type struct " +
			"or ptr to struct, got: " + valKind.String())
	}

	convertedBytes := new(bytes.Buffer)
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		var err error
		switch kind := field.Kind(); kind {
		case reflect.Struct, reflect.Ptr:
			b, _ := BytesFromStruct(field.Interface())
			err = binary.Write(convertedBytes, binary.LittleEndian, b)
		default:
			err = binary.Write(convertedBytes, binary.LittleEndian, field.Interface())
		}
		if err != nil {
			panic(err.Error())
		}
	}
	return convertedBytes.Bytes(), convertedBytes.Len()
}

// ReadStruct populates the struct pointed to by targetStruct by reading its
// fields from r in declaration order. A short read returns io.ErrUnexpectedEOF.
func ReadStruct(r io.Reader, targetStruct interface{}) error {
	targetVal := reflect.ValueOf(targetStruct)

	if valKind := targetVal.Kind(); valKind != reflect.Ptr {
		panic("ReadStruct(): targetStruct must be a " +
			"ptr to struct, got: " + valKind.String())
	}

	val := targetVal.Elem()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		var err error
		switch field.Kind() {
		case reflect.Ptr:
			err = binary.Read(r, binary.LittleEndian, field.Interface())
		default:
			err = binary.Read(r, binary.LittleEndian, field.Addr().Interface())
		}
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		} else if err != nil {
			return err
		}
	}
	return nil
}

// StructFromBytes is ReadStruct over a byte slice.
func StructFromBytes(data []byte, targetStruct interface{}) error {
	return ReadStruct(bytes.NewReader(data), targetStruct)
}
