package aio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_OpenOption_Disposition_Precedence(t *testing.T) {
	cases := []struct {
		opt  OpenOption
		want disposition
	}{
		{OpenRead, openExisting},
		{OpenWrite, openExisting},
		{OpenCreateNew, createNew},
		{OpenCreateNew | OpenCreate | OpenTruncate | OpenWrite, createNew},
		{OpenCreate | OpenTruncate | OpenWrite, createAlways},
		{OpenCreate | OpenTruncate, openAlways}, // no WRITE: truncate ignored
		{OpenCreate, openAlways},
		{OpenCreate | OpenWrite, openAlways},
		{OpenTruncate | OpenWrite, truncateExisting},
		{OpenTruncate, openExisting},
		{OpenAppend | OpenWrite | OpenSync | OpenDirect, openExisting},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.opt.disposition(), tc.opt.String())
	}
}

func Test_OpenOption_Has_String(t *testing.T) {
	opt := OpenWrite | OpenCreate | OpenDSync
	assert.True(t, opt.Has(OpenWrite))
	assert.True(t, opt.Has(OpenWrite|OpenCreate))
	assert.False(t, opt.Has(OpenWrite|OpenTruncate))
	assert.True(t, opt.Has(OpenRead))

	assert.Equal(t, "READ", OpenRead.String())
	assert.Equal(t, "READ|WRITE|CREATE|DSYNC", opt.String())
	assert.Equal(t, "READ|WRITE|APPEND|CREATE|CREATE_NEW|TRUNCATE|SYNC|DSYNC|DIRECT", OpenOption(0xff).String())
}

func Test_OpenOption_Appends_Needs_Write(t *testing.T) {
	assert.False(t, OpenAppend.appends())
	assert.True(t, (OpenAppend | OpenWrite).appends())
}
