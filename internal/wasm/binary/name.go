package binary

import "github.com/tetratelabs/pwasm/internal/wasm"

const (
	nameSubsectionModule   = 0
	nameSubsectionFunction = 1
)

// decodeNameSection parses the custom "name" section's module and function
// name subsections. Local name subsections (id 2) are skipped: this runtime
// only ever surfaces module/function names in trap messages and the dump
// CLI.
func decodeNameSection(r *reader) (*wasm.NameSection, error) {
	ns := &wasm.NameSection{FuncNames: map[uint32]string{}}
	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			return nil, err
		}
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		body, err := r.bytes(size)
		if err != nil {
			return nil, err
		}
		sr := newReader(body)
		switch id {
		case nameSubsectionModule:
			n, err := sr.u32()
			if err != nil {
				return nil, err
			}
			b, err := sr.bytes(n)
			if err != nil {
				return nil, err
			}
			ns.ModuleName = string(b)
		case nameSubsectionFunction:
			cnt, err := sr.u32()
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < cnt; i++ {
				idx, err := sr.u32()
				if err != nil {
					return nil, err
				}
				n, err := sr.u32()
				if err != nil {
					return nil, err
				}
				b, err := sr.bytes(n)
				if err != nil {
					return nil, err
				}
				ns.FuncNames[idx] = string(b)
			}
		default:
			// local names and any future subsection kind: not retained.
		}
	}
	return ns, nil
}
