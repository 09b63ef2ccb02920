package store

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestDigest(t *testing.T) {
    a := Digest([]byte("%PDF-1.4 a"))
    assert.Len(t, a, 64)
    assert.Equal(t, a, Digest([]byte("%PDF-1.4 a")))
    assert.NotEqual(t, a, Digest([]byte("%PDF-1.4 b")))
}

func TestResultKey(t *testing.T) {
    assert.Equal(t, "extract:abc:text:1,2,5", ResultKey("abc", []int{0, 1, 4}, nil, "text"))
    assert.Equal(t, "extract:abc:json:", ResultKey("abc", nil, nil, "json"))
    assert.Equal(t, "extract:abc:json:1!abc,x-y", ResultKey("abc", []int{0}, []string{"abc", "x-y"}, "json"))
    assert.NotEqual(t, ResultKey("abc", []int{0}, nil, "json"), ResultKey("abc", []int{0}, []string{"abc"}, "json"))

    many := make([]int, 200)
    for i := range many { many[i] = i }
    k := ResultKey("abc", many, nil, "text")
    assert.True(t, strings.HasPrefix(k, "extract:abc:text:h"))
    assert.Len(t, k, len("extract:abc:text:h")+16)
}
