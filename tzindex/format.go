package tzindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	MagicV1       = "TZQ1"
	VersionV1     = 1
	HeaderBytesV1 = 32

	labelSep = 0
)

// HeaderV1 is the fixed size header of a compiled table blob.
//
//	+----------------------+  0
//	| magic "TZQ1"         |
//	+----------------------+  4
//	| version | reserved   |
//	+----------------------+  6
//	| labelCount  u16 BE   |
//	+----------------------+  8
//	| nodeBytes   u32 BE   |
//	+----------------------+  12
//	| labelBytes  u32 BE   |
//	+----------------------+  16
//	| buildID[16]          |
//	+----------------------+  32
type HeaderV1 struct {
	LabelCount uint16
	NodeBytes  uint32
	LabelBytes uint32
	BuildID    uuid.UUID
}

// DecodeHeaderV1 decodes a V1 header from the start of blob.
func DecodeHeaderV1(blob []byte) (HeaderV1, error) {
	if len(blob) < HeaderBytesV1 {
		return HeaderV1{}, fmt.Errorf("%w: %d bytes", ErrBadRegionSize, len(blob))
	}
	if string(blob[0:4]) != MagicV1 {
		return HeaderV1{}, ErrBadMagic
	}
	if blob[4] != VersionV1 {
		return HeaderV1{}, fmt.Errorf("%w: %d", ErrBadVersion, blob[4])
	}

	var h HeaderV1
	h.LabelCount = binary.BigEndian.Uint16(blob[6:8])
	h.NodeBytes = binary.BigEndian.Uint32(blob[8:12])
	h.LabelBytes = binary.BigEndian.Uint32(blob[12:16])
	copy(h.BuildID[:], blob[16:32])
	return h, nil
}

// EncodeHeaderV1 writes h into the first HeaderBytesV1 bytes of blob.
func EncodeHeaderV1(blob []byte, h HeaderV1) error {
	if len(blob) < HeaderBytesV1 {
		return fmt.Errorf("%w: %d bytes", ErrBadRegionSize, len(blob))
	}
	copy(blob[0:4], MagicV1)
	blob[4] = VersionV1
	blob[5] = 0
	binary.BigEndian.PutUint16(blob[6:8], h.LabelCount)
	binary.BigEndian.PutUint32(blob[8:12], h.NodeBytes)
	binary.BigEndian.PutUint32(blob[12:16], h.LabelBytes)
	copy(blob[16:32], h.BuildID[:])
	return nil
}

// EncodeV1 serializes the tables into a single blob:
//
//	header || nodeData || label0 NUL label1 NUL ... labelN-1
func EncodeV1(nodeData []byte, labels []string, buildID uuid.UUID) ([]byte, error) {
	if err := CheckNodeData(nodeData); err != nil {
		return nil, err
	}
	if err := CheckLabels(labels); err != nil {
		return nil, err
	}
	for _, l := range labels {
		if strings.IndexByte(l, labelSep) >= 0 {
			return nil, fmt.Errorf("%w: label %q contains NUL", ErrBadLabelBlock, l)
		}
	}
	labelBlock := []byte{}
	for i, l := range labels {
		if i > 0 {
			labelBlock = append(labelBlock, labelSep)
		}
		labelBlock = append(labelBlock, l...)
	}

	blob := make([]byte, HeaderBytesV1+len(nodeData)+len(labelBlock))
	if err := EncodeHeaderV1(blob, HeaderV1{
		LabelCount: uint16(len(labels)),
		NodeBytes:  uint32(len(nodeData)),
		LabelBytes: uint32(len(labelBlock)),
		BuildID:    buildID,
	}); err != nil {
		return nil, err
	}
	copy(blob[HeaderBytesV1:], nodeData)
	copy(blob[HeaderBytesV1+len(nodeData):], labelBlock)
	return blob, nil
}

// DecodeV1 decodes a blob produced by EncodeV1. The returned index slices
// the node data out of blob without copying; blob must not be modified
// afterwards.
func DecodeV1(blob []byte) (*Index, error) {
	h, err := DecodeHeaderV1(blob)
	if err != nil {
		return nil, err
	}

	want := uint64(HeaderBytesV1) + uint64(h.NodeBytes) + uint64(h.LabelBytes)
	if uint64(len(blob)) != want {
		return nil, fmt.Errorf("%w: want=%d, got=%d", ErrBadRegionSize, want, len(blob))
	}

	nodeEnd := HeaderBytesV1 + int(h.NodeBytes)
	nodeData := blob[HeaderBytesV1:nodeEnd:nodeEnd]

	labels := make([]string, 0, h.LabelCount)
	for _, l := range bytes.Split(blob[nodeEnd:], []byte{labelSep}) {
		labels = append(labels, string(l))
	}
	if len(labels) != int(h.LabelCount) {
		return nil, fmt.Errorf(
			"%w: header has %d labels, block has %d", ErrBadLabelBlock, h.LabelCount, len(labels))
	}

	ix, err := NewIndex(nodeData, labels)
	if err != nil {
		return nil, err
	}
	ix.buildID = h.BuildID
	return ix, nil
}
