package gitnative

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
)

// Blob is a loaded blob object.
type Blob struct {
	*Object
}

// FindBlob loads the blob with the given id.
func (r *Repository) FindBlob(id Oid) (*Blob, error) {
	obj, err := r.lookupObject(id, ObjectBlob)
	if err != nil {
		return nil, err
	}
	return &Blob{Object: obj}, nil
}

// Content returns the blob's bytes. The result is the caller's to keep;
// mutating it does not affect the stored object.
func (b *Blob) Content() ([]byte, error) {
	if err := b.h.use(); err != nil {
		return nil, err
	}
	data, st := b.repo.eng.BlobContent(b.h.mustRaw())
	if st != native.OK {
		return nil, translate(b.repo.eng, st)
	}
	return data, nil
}

// Size returns the blob's length in bytes.
func (b *Blob) Size() (int64, error) {
	data, err := b.Content()
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
