package gitnative

import (
	"encoding/hex"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Oid is a fixed-width content hash identifying one object. Value semantics:
// compare with ==.
type Oid = native.Oid

// Signature identifies the author or committer of a commit or tag.
type Signature = native.Signature

// ObjectKind discriminates the object types stored in the object database.
type ObjectKind = native.Kind

// Object kinds accepted by lookups. ObjectAny skips the kind check.
const (
	ObjectAny    = native.KindAny
	ObjectCommit = native.KindCommit
	ObjectTree   = native.KindTree
	ObjectBlob   = native.KindBlob
	ObjectTag    = native.KindTag
)

// ParseOid parses a full lowercase or uppercase hex object id. Short ids are
// rejected; use Repository.RevparseSingle to resolve abbreviations.
func ParseOid(s string) (Oid, error) {
	if len(s) != native.OidSizeSHA1*2 && len(s) != native.OidSizeSHA256*2 {
		return Oid{}, &Error{
			Class:   native.ClassInvalid,
			Code:    CodeInvalidSpec,
			Message: fmt.Sprintf("object id %q must be %d or %d hex digits", s, native.OidSizeSHA1*2, native.OidSizeSHA256*2),
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Oid{}, &Error{
			Class:   native.ClassInvalid,
			Code:    CodeInvalidSpec,
			Message: fmt.Sprintf("object id %q is not hex: %s", s, err),
		}
	}
	return native.NewOid(b), nil
}
