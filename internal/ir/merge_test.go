package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMergeKeepsUnrelated(t *testing.T) {
	dst := IRObject{
		"7": IRObject{"name": IRString("Alice"), "email": IRString("a@x")},
		"8": IRObject{"name": IRString("Bob")},
	}
	src := IRObject{
		"7": IRObject{"name": IRString("Alicia"), "age": IRInt(30)},
	}

	out := DeepMerge(dst, src)

	assert.Equal(t, IRObject{
		"7": IRObject{"name": IRString("Alicia"), "email": IRString("a@x"), "age": IRInt(30)},
		"8": IRObject{"name": IRString("Bob")},
	}, out)
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	dst := IRObject{"a": IRObject{"x": IRInt(1)}}
	src := IRObject{"a": IRObject{"y": IRInt(2)}}

	_ = DeepMerge(dst, src)

	assert.Equal(t, IRObject{"a": IRObject{"x": IRInt(1)}}, dst)
	assert.Equal(t, IRObject{"a": IRObject{"y": IRInt(2)}}, src)
}

func TestDeepMergeReplacesNonObjects(t *testing.T) {
	dst := IRObject{"tags": IRArray{IRString("a"), IRString("b")}, "n": IRInt(1), "o": IRObject{"k": IRInt(1)}}
	src := IRObject{"tags": IRArray{IRString("c")}, "n": IRNull{}, "o": IRString("flat"), "skip": nil}

	out := DeepMerge(dst, src)

	assert.Equal(t, IRArray{IRString("c")}, out["tags"])
	assert.Equal(t, IRNull{}, out["n"])
	assert.Equal(t, IRString("flat"), out["o"])
	_, present := out["skip"]
	assert.False(t, present)
}

func TestModelStateMerge(t *testing.T) {
	current := ModelState{
		"user":  IRObject{"7": IRObject{"name": IRString("Alice")}},
		"order": IRObject{"1": IRObject{"total": IRInt(10)}},
	}
	incoming := ModelState{
		"user": IRObject{"7": IRObject{"role": IRString("admin")}, "9": IRObject{"name": IRString("Eve")}},
	}

	merged := current.Merge(incoming)

	assert.Equal(t, IRObject{"name": IRString("Alice"), "role": IRString("admin")}, merged["user"]["7"])
	assert.Equal(t, IRObject{"name": IRString("Eve")}, merged["user"]["9"])
	assert.Equal(t, current["order"], merged["order"])
	assert.Equal(t, IRObject{"name": IRString("Alice")}, current["user"]["7"], "input untouched")
}

func TestModelStateRecord(t *testing.T) {
	m := ModelState{"user": IRObject{"7": IRObject{"name": IRString("Alice")}}}

	rec, hasModel, hasRecord := m.Record("user", "7")
	assert.True(t, hasModel)
	assert.True(t, hasRecord)
	assert.Equal(t, IRObject{"name": IRString("Alice")}, rec)

	_, hasModel, hasRecord = m.Record("user", "8")
	assert.True(t, hasModel)
	assert.False(t, hasRecord)

	_, hasModel, _ = m.Record("order", "1")
	assert.False(t, hasModel)
}
