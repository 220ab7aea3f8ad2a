package ir

// DeepMerge returns a new object holding dst overlaid with src.
//
// Nested objects merge key by key. Any other src value, explicit null
// included, replaces the dst value. Keys absent from src keep their dst
// value, so a merge never deletes. Undefined src entries are skipped.
//
// Neither input is mutated: unchanged subtrees are shared with dst, which
// keeps published snapshots valid.
func DeepMerge(dst, src IRObject) IRObject {
	out := make(IRObject, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if v == nil {
			continue
		}
		srcObj, srcIsObj := v.(IRObject)
		dstObj, dstIsObj := out[k].(IRObject)
		if srcIsObj && dstIsObj {
			out[k] = DeepMerge(dstObj, srcObj)
			continue
		}
		out[k] = Clone(v)
	}
	return out
}

// ModelState is the model cache: model name to record id to record.
type ModelState map[string]IRObject

// Merge returns a new ModelState with incoming records deep-merged over the
// current ones. Models and records not mentioned in incoming survive.
func (m ModelState) Merge(incoming ModelState) ModelState {
	out := make(ModelState, len(m)+len(incoming))
	for name, records := range m {
		out[name] = records
	}
	for name, records := range incoming {
		if records == nil {
			continue
		}
		out[name] = DeepMerge(out[name], records)
	}
	return out
}

// Record returns the record stored under model and id.
// The booleans report whether the model and the record exist.
func (m ModelState) Record(model, id string) (IRValue, bool, bool) {
	records, ok := m[model]
	if !ok {
		return nil, false, false
	}
	rec, ok := records[id]
	if !ok {
		return nil, true, false
	}
	return rec, true, true
}

// ToIR converts the model state into a single IRObject.
func (m ModelState) ToIR() IRObject {
	out := make(IRObject, len(m))
	for name, records := range m {
		out[name] = records
	}
	return out
}
