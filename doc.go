// Package rootflat turns decoded ROOT tree fields into flat tables and encodes
// the fixed-layout records ROOT uses for directory metadata.
//
// # Architecture
//
// A flatten run moves through four stages:
//
// 1. Interpretation: every field carries an interpretation (interp package)
// that Classify reduces to a structural shape: scalar, record, fixed-size
// array, record array, ragged or opaque.
//
// 2. Resolution: field values may be deferred; flatten.ResolveAll resolves
// them concurrently with a bounded worker group.
//
// 3. Flattening: flatten.Flatten checks that all ragged fields share one
// offsets structure, broadcasts per-entry fields across sub-entries (jagged
// package) and emits one column per primitive leaf, indexed by
// (entry, subentry) or by row number when nothing is ragged.
//
// 4. Output: the resulting frame.Frame writes Arrow IPC, CSV or JSON lines,
// optionally through a compression codec.
//
// # Quick Start
//
//	fields := []flatten.Field{
//	    {Name: "nMuon", Interpretation: interp.Primitive(values.KindInt32),
//	        Value: values.NewNumeric(values.Of([]int32{2, 1}))},
//	    {Name: "Muon_pt", Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
//	        Value: jagged.FromCounts([]int64{2, 1}, values.NewNumeric(values.Of([]float32{10.5, 20, 31})))},
//	}
//	f, err := flatten.Flatten(fields, flatten.DefaultOptions())
//
// Directory records:
//
//	d := rootio.NewDirectoryInfo(keysBytes, nameBytes, keysSeek)
//	record, err := d.Encode([]byte("tree"))
//
// # Command Line
//
//	rootflat flatten --input fields.json --format csv --compression zstd --output out.csv.zst
//	rootflat dirinfo --keys-bytes 10 --name-bytes 20 --keys-seek 1234
package rootflat
