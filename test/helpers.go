// Package test holds helpers shared by the tests of the other packages.
package test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// MustBe uses reflect.DeepEqual to assert that thing1 and thing2 are equal, and
// fails otherwise.
func MustBe(t *testing.T, thing1, thing2 interface{}, context ...string) {
	t.Helper()
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

// ErrNil asserts that the err is nil and fails otherwise.
func ErrNil(t *testing.T, err error, ctx string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%v: %v", ctx, err)
	}
}

// TempDir makes a temporary directory which is removed when the test ends.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "enrollmart")
	ErrNil(t, err, "making temp dir")
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	ErrNil(t, ioutil.WriteFile(p, []byte(content), 0644), "writing "+name)
	return p
}
