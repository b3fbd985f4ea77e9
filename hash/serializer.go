package hash

// Serializer converts a fixed-size value of type T to and from its on-disk
// byte representation. Block pages require every key and value to serialize
// to exactly Size() bytes so that BLOCK_ARRAY_SIZE slots pack tightly.
type Serializer[T any] interface {
	Serialize(v T) []byte
	Deserialize(data []byte) T
	Size() int
}

// Int32Serializer serializes an int32 key or value in big-endian byte order.
type Int32Serializer struct{}

func (Int32Serializer) Serialize(v int32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func (Int32Serializer) Deserialize(data []byte) int32 {
	return int32(data[0])<<24 | int32(data[1])<<16 | int32(data[2])<<8 | int32(data[3])
}

func (Int32Serializer) Size() int { return 4 }

// FixedStringSerializer serializes strings into a zero-padded buffer of Len
// bytes, truncating longer input. Use it for keys or values of bounded width.
type FixedStringSerializer struct {
	Len int
}

func (s FixedStringSerializer) Serialize(v string) []byte {
	buf := make([]byte, s.Len)
	copy(buf, v)
	return buf
}

func (s FixedStringSerializer) Deserialize(data []byte) string {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return string(data[:end])
}

func (s FixedStringSerializer) Size() int { return s.Len }

// RID mirrors the (page-id, slot) record identifier a heap-resident index
// would store as its value; it is a natural fixed-size value type for a hash
// index built on top of this package's buffer pool.
type RID struct {
	PageID uint32
	Slot   uint32
}

type RIDSerializer struct{}

func (RIDSerializer) Serialize(v RID) []byte {
	return []byte{
		byte(v.PageID >> 24), byte(v.PageID >> 16), byte(v.PageID >> 8), byte(v.PageID),
		byte(v.Slot >> 24), byte(v.Slot >> 16), byte(v.Slot >> 8), byte(v.Slot),
	}
}

func (RIDSerializer) Deserialize(data []byte) RID {
	return RID{
		PageID: uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]),
		Slot:   uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7]),
	}
}

func (RIDSerializer) Size() int { return 8 }
