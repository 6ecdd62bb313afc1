package model

// User holds only the salted, irreversible fingerprints of a requester's
// IP and client fingerprint. Ported from music_arena/dataclass/arena.py's
// User: the raw ip/fingerprint values are salted and discarded at
// construction time and are never represented in this struct at all (the
// original keeps transient ip/fingerprint fields only long enough to
// delete them in __post_init__; Go has no equivalent transient-field idiom
// worth reproducing, so the constructor simply never stores the raw
// values).
type User struct {
	SaltedIP          *string `json:"salted_ip,omitempty"`
	SaltedFingerprint *string `json:"salted_fingerprint,omitempty"`
}

// NewUser salts ip/fingerprint with salt and discards the raw values,
// matching User.__post_init__. Either argument may be empty, meaning
// "not provided".
func NewUser(ip, fingerprint, salt string) User {
	var u User
	if ip != "" {
		v := SaltedChecksum(ip, salt)
		u.SaltedIP = &v
	}
	if fingerprint != "" {
		v := SaltedChecksum(fingerprint, salt)
		u.SaltedFingerprint = &v
	}
	return u
}

// Checksum hashes the sorted-key JSON of the salted fields, matching
// User.checksum. Unlike BasePrompt.checksum, both fields are always
// present in the hashed object even when nil (matching the original,
// which always includes both dict keys).
func (u User) Checksum() string {
	ip := ""
	if u.SaltedIP != nil {
		ip = *u.SaltedIP
	}
	fp := ""
	if u.SaltedFingerprint != nil {
		fp = *u.SaltedFingerprint
	}
	fields := []jsonField{}
	if u.SaltedIP != nil {
		fields = append(fields, jsonStringField("salted_ip", ip))
	} else {
		fields = append(fields, jsonField{"salted_ip", "null"})
	}
	if u.SaltedFingerprint != nil {
		fields = append(fields, jsonStringField("salted_fingerprint", fp))
	} else {
		fields = append(fields, jsonField{"salted_fingerprint", "null"})
	}
	return checksumFields(fields)
}

// HasTrackingInfo reports whether at least one of ip/fingerprint was
// provided, used by the gateway to warn (not reject) on untracked users.
func (u User) HasTrackingInfo() bool {
	return u.SaltedIP != nil || u.SaltedFingerprint != nil
}
