package main

import (
	"os"
	"testing"

	"rsc.io/script/scripttest"
)

func TestMain(m *testing.M) {
	os.Exit(scripttest.RunMain(m, map[string]func() int{
		"hone": Main,
	}))
}
