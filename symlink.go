package ospfs

import "bytes"

// Symbolic link payload encoding. A plain symlink's payload is simply its
// target path, not NUL-terminated in the inode (size gives the length). A
// conditional symlink begins with '?' and packs two targets as
// "?" + rootPath + "\x00" + ":" + otherPath -- the leading '?' and ':' are
// part of the stored bytes, matching ospfs_symlink's strncpy-based layout
// exactly.

// IsConditionalTarget reports whether target, as passed to Symlink, encodes
// two conditional targets rather than a single plain one: it must start
// with '?' and contain a later ':'.
func IsConditionalTarget(target string) bool {
	if len(target) == 0 || target[0] != '?' {
		return false
	}
	return bytes.IndexByte([]byte(target[1:]), ':') >= 0
}

// encodeSymlinkPayload turns a caller-supplied target into on-disk bytes.
// For a conditional target "?rootpath:otherpath", it rewrites the first ':'
// found after the leading '?' into the pair "\x00:", producing
// "?rootpath\x00:otherpath". Plain targets pass through unchanged.
func encodeSymlinkPayload(target string) (string, DriverError) {
	if !IsConditionalTarget(target) {
		if len(target) > MaxSymlinkLen {
			return "", ErrNameTooLong
		}
		return target, nil
	}

	colon := bytes.IndexByte([]byte(target[1:]), ':') + 1
	rootPath := target[:colon]         // includes leading '?'
	otherPath := target[colon:]        // includes the ':'
	payload := rootPath + "\x00" + otherPath
	if len(payload) > MaxSymlinkLen {
		return "", ErrNameTooLong
	}
	return payload, nil
}

// decodeSymlinkPayload extracts the path a caller should follow from a
// symlink's raw on-disk payload, choosing the root segment for isRoot
// callers and the other segment otherwise. Plain (non-conditional)
// payloads are returned unchanged regardless of isRoot.
//
// Decoding validates aggressively: the interior NUL must be followed
// immediately by ':', or the payload is treated as corrupt (ErrIOFailed)
// rather than trusted blindly. A '?' payload with no NUL at all is a plain
// target (encodeSymlinkPayload only inserts a NUL for conditional ones) and
// is returned unchanged.
func decodeSymlinkPayload(payload []byte, isRoot bool) ([]byte, DriverError) {
	if len(payload) == 0 || payload[0] != '?' {
		return payload, nil
	}

	nul := bytes.IndexByte(payload, 0)
	if nul < 0 {
		return payload, nil
	}
	if nul+1 >= len(payload) || payload[nul+1] != ':' {
		return nil, ErrIOFailed.WithMessage("malformed conditional symlink payload")
	}

	if isRoot {
		return payload[1:nul], nil
	}
	return payload[nul+2:], nil
}
