package vvc

import "fmt"

// NALType is the 5-bit nal_unit_type of a VVC NAL unit header.
type NALType uint8

// VVC NAL unit type constants as defined in ITU-T H.266 Table 5.
const (
	NALTrail     NALType = 0
	NALSTSA      NALType = 1
	NALRADL      NALType = 2
	NALRASL      NALType = 3
	NALIDRWRadl  NALType = 7
	NALIDRNlp    NALType = 8
	NALCRA       NALType = 9
	NALGDR       NALType = 10
	NALOPI       NALType = 12
	NALDCI       NALType = 13
	NALVPS       NALType = 14
	NALSPS       NALType = 15
	NALPPS       NALType = 16
	NALPrefixAPS NALType = 17
	NALSuffixAPS NALType = 18
	NALPH        NALType = 19
	NALAUD       NALType = 20
	NALEOS       NALType = 21
	NALEOB       NALType = 22
	NALPrefixSEI NALType = 23
	NALSuffixSEI NALType = 24
	NALFD        NALType = 25
)

var nalTypeNames = [32]string{
	"TRAIL_NUT", "STSA_NUT", "RADL_NUT", "RASL_NUT",
	"RSV_VCL_4", "RSV_VCL_5", "RSV_VCL_6",
	"IDR_W_RADL", "IDR_N_LP", "CRA_NUT", "GDR_NUT", "RSV_IRAP_11",
	"OPI_NUT", "DCI_NUT", "VPS_NUT", "SPS_NUT", "PPS_NUT",
	"PREFIX_APS_NUT", "SUFFIX_APS_NUT", "PH_NUT", "AUD_NUT",
	"EOS_NUT", "EOB_NUT", "PREFIX_SEI_NUT", "SUFFIX_SEI_NUT", "FD_NUT",
	"RSV_NVCL_26", "RSV_NVCL_27",
	"UNSPEC_28", "UNSPEC_29", "UNSPEC_30", "UNSPEC_31",
}

func (t NALType) String() string {
	if int(t) < len(nalTypeNames) {
		return nalTypeNames[t]
	}
	return fmt.Sprintf("NALType(%d)", uint8(t))
}

// IsVCL reports whether the type carries coded slice data (types 0-11).
func (t NALType) IsVCL() bool {
	return t <= 11
}

// IsIRAP reports whether the type is an IDR or CRA picture.
func (t NALType) IsIRAP() bool {
	return t >= NALIDRWRadl && t <= NALCRA
}

// IsAUBoundary reports whether a unit of this type starts a new access unit.
// Only access unit delimiters are treated as boundaries.
func IsAUBoundary(t NALType) bool {
	return t == NALAUD
}

// Header is a decoded two-byte VVC NAL unit header:
// forbidden_zero_bit(1) | nuh_reserved_zero_bit(1) | nuh_layer_id(6) |
// nal_unit_type(5) | nuh_temporal_id_plus1(3).
type Header struct {
	ForbiddenZeroBit bool
	ReservedZeroBit  bool
	LayerID          uint8
	Type             NALType
	TemporalIDPlus1  uint8
}

// HeaderSize is the length of a VVC NAL unit header in bytes.
const HeaderSize = 2

// StartCodeLen returns the length of the Annex B start code at the beginning
// of b: 3 for 00 00 01, 4 for 00 00 00 01 and 0 otherwise.
func StartCodeLen(b []byte) int {
	switch {
	case len(b) >= 3 && b[0] == 0 && b[1] == 0 && b[2] == 1:
		return 3
	case len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 1:
		return 4
	}
	return 0
}

// ParseHeader strips an optional start code from b and decodes the NAL unit
// header. It returns the header and the payload that follows it. An
// unrecognized prefix is not an error; the buffer is assumed to start at the
// header.
func ParseHeader(b []byte) (Header, []byte, error) {
	b = b[StartCodeLen(b):]
	if len(b) < HeaderSize {
		return Header{}, nil, ErrMalformedHeader
	}
	h := Header{
		ForbiddenZeroBit: b[0]&0x80 != 0,
		ReservedZeroBit:  b[0]&0x40 != 0,
		LayerID:          b[0] & 0x3F,
		Type:             NALType(b[1] >> 3),
		TemporalIDPlus1:  b[1] & 0x07,
	}
	return h, b[HeaderSize:], nil
}
