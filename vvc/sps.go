package vvc

import "fmt"

// SPSInfo holds the fields extracted from a VVC sequence parameter set. Only
// the leading syntax elements are read; parsing stops at the first element
// this package does not need.
type SPSInfo struct {
	ID                 uint8
	VPSID              uint8
	MaxSublayersMinus1 uint8
	ChromaFormatIDC    uint8
	Log2CTUSize        uint8

	PTLPresent          bool
	ProfileIDC          uint8
	TierFlag            uint8
	LevelIDC            uint8
	FrameOnlyConstraint bool
	MultilayerEnabled   bool

	// Width and Height are the maximum picture size. They stay zero when
	// general constraint info is present, since its layout is not parsed.
	Width  int
	Height int
}

// CodecString returns the RFC 6381 style codec string (e.g. "vvc1.1.L83").
// It is empty when no profile_tier_level was present.
func (s SPSInfo) CodecString() string {
	if !s.PTLPresent {
		return ""
	}
	tier := "L"
	if s.TierFlag == 1 {
		tier = "H"
	}
	return fmt.Sprintf("vvc1.%d.%s%d", s.ProfileIDC, tier, s.LevelIDC)
}

// SPSParser parses an SPS payload, i.e. the bytes after the two-byte NAL
// header. ParseSPS is the default.
type SPSParser func(payload []byte) (SPSInfo, error)

// ParseSPS parses the payload of an SPS_NUT unit. The input must not include
// the start code or the NAL header.
func ParseSPS(payload []byte) (SPSInfo, error) {
	if len(payload) < 2 {
		return SPSInfo{}, ErrSPSTooShort
	}

	br := newBitReader(removeEmulationPrevention(payload))
	var info SPSInfo

	read := func(field string, n int) (uint, error) {
		v, err := br.readBits(n)
		if err != nil {
			return 0, &ParseError{Field: field, Err: err}
		}
		return v, nil
	}

	v, err := read("sps_seq_parameter_set_id", 4)
	if err != nil {
		return info, err
	}
	info.ID = uint8(v)

	if v, err = read("sps_video_parameter_set_id", 4); err != nil {
		return info, err
	}
	info.VPSID = uint8(v)

	if v, err = read("sps_max_sublayers_minus1", 3); err != nil {
		return info, err
	}
	info.MaxSublayersMinus1 = uint8(v)

	if v, err = read("sps_chroma_format_idc", 2); err != nil {
		return info, err
	}
	info.ChromaFormatIDC = uint8(v)

	if v, err = read("sps_log2_ctu_size_minus5", 2); err != nil {
		return info, err
	}
	info.Log2CTUSize = uint8(v) + 5

	if v, err = read("sps_ptl_dpb_hrd_params_present_flag", 1); err != nil {
		return info, err
	}
	info.PTLPresent = v == 1

	if info.PTLPresent {
		gciPresent, err := parseProfileTierLevel(br, &info)
		if err != nil {
			return info, err
		}
		if gciPresent {
			return info, nil
		}
	}

	// sps_gdr_enabled_flag
	if _, err := read("sps_gdr_enabled_flag", 1); err != nil {
		return info, err
	}
	rpr, err := read("sps_ref_pic_resampling_enabled_flag", 1)
	if err != nil {
		return info, err
	}
	if rpr == 1 {
		if _, err := read("sps_res_change_in_clvs_allowed_flag", 1); err != nil {
			return info, err
		}
	}

	width, err := br.readUE()
	if err != nil {
		return info, &ParseError{Field: "sps_pic_width_max_in_luma_samples", Err: err}
	}
	height, err := br.readUE()
	if err != nil {
		return info, &ParseError{Field: "sps_pic_height_max_in_luma_samples", Err: err}
	}
	info.Width = int(width)
	info.Height = int(height)

	return info, nil
}

// parseProfileTierLevel reads profile_tier_level(1, MaxSublayersMinus1). It
// reports whether general_constraints_info was present, in which case the
// reader is left inside it and the caller has to stop.
func parseProfileTierLevel(br *bitReader, info *SPSInfo) (bool, error) {
	profile, err := br.readBits(7)
	if err != nil {
		return false, &ParseError{Field: "general_profile_idc", Err: err}
	}
	info.ProfileIDC = uint8(profile)

	tier, err := br.readBits(1)
	if err != nil {
		return false, &ParseError{Field: "general_tier_flag", Err: err}
	}
	info.TierFlag = uint8(tier)

	level, err := br.readBits(8)
	if err != nil {
		return false, &ParseError{Field: "general_level_idc", Err: err}
	}
	info.LevelIDC = uint8(level)

	if info.FrameOnlyConstraint, err = br.readFlag(); err != nil {
		return false, &ParseError{Field: "ptl_frame_only_constraint_flag", Err: err}
	}
	if info.MultilayerEnabled, err = br.readFlag(); err != nil {
		return false, &ParseError{Field: "ptl_multilayer_enabled_flag", Err: err}
	}

	gciPresent, err := br.readFlag()
	if err != nil {
		return false, &ParseError{Field: "gci_present_flag", Err: err}
	}
	if gciPresent {
		return true, nil
	}
	if err := br.byteAlign(); err != nil {
		return false, &ParseError{Field: "gci_alignment_zero_bit", Err: err}
	}

	var sublayerLevelPresent [8]bool
	for i := int(info.MaxSublayersMinus1) - 1; i >= 0; i-- {
		if sublayerLevelPresent[i], err = br.readFlag(); err != nil {
			return false, &ParseError{Field: "ptl_sublayer_level_present_flag", Err: err}
		}
	}
	if err := br.byteAlign(); err != nil {
		return false, &ParseError{Field: "ptl_reserved_zero_bit", Err: err}
	}
	for i := int(info.MaxSublayersMinus1) - 1; i >= 0; i-- {
		if !sublayerLevelPresent[i] {
			continue
		}
		if _, err := br.readBits(8); err != nil {
			return false, &ParseError{Field: "sublayer_level_idc", Err: err}
		}
	}

	numSubProfiles, err := br.readBits(8)
	if err != nil {
		return false, &ParseError{Field: "ptl_num_sub_profiles", Err: err}
	}
	for i := uint(0); i < numSubProfiles; i++ {
		if _, err := br.readBits(32); err != nil {
			return false, &ParseError{Field: "general_sub_profile_idc", Err: err}
		}
	}
	return false, nil
}
