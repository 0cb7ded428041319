package aio

import "strings"

// OpenOption is a set of open semantics, combined with |.
type OpenOption uint8

const (
	OpenRead      OpenOption = 0      // read access, always granted
	OpenWrite     OpenOption = 1 << 0 // write access in addition to read
	OpenAppend    OpenOption = 1 << 1 // writes go to end-of-file whatever their offset. Needs OpenWrite.
	OpenCreate    OpenOption = 1 << 2 // create if absent. Ignored with OpenCreateNew.
	OpenCreateNew OpenOption = 1 << 3 // create, failing if the file exists
	OpenTruncate  OpenOption = 1 << 4 // truncate an existing file. Needs OpenWrite.
	OpenSync      OpenOption = 1 << 5 // writes complete once data and metadata are durable
	OpenDSync     OpenOption = 1 << 6 // writes complete once data is durable. Ignored with OpenSync.
	OpenDirect    OpenOption = 1 << 7 // bypass the page cache
)

func (o OpenOption) Has(flag OpenOption) bool {
	return o&flag == flag
}

var optionNames = [...]string{"WRITE", "APPEND", "CREATE", "CREATE_NEW", "TRUNCATE", "SYNC", "DSYNC", "DIRECT"}

func (o OpenOption) String() string {
	names := []string{"READ"}
	for i, name := range optionNames {
		if o&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// disposition is what to do about the file's existence. Both native APIs want
// exactly one of these rather than independent create/truncate bits.
type disposition uint8

const (
	openExisting     disposition = iota // fail if absent
	createNew                           // fail if present
	createAlways                        // create or truncate
	openAlways                          // create or open
	truncateExisting                    // truncate, fail if absent
)

func (o OpenOption) disposition() disposition {
	switch {
	case o.Has(OpenCreateNew):
		return createNew
	case o.Has(OpenCreate | OpenTruncate | OpenWrite):
		return createAlways
	case o.Has(OpenCreate):
		return openAlways
	case o.Has(OpenTruncate | OpenWrite):
		return truncateExisting
	default:
		return openExisting
	}
}

func (o OpenOption) appends() bool {
	return o.Has(OpenWrite | OpenAppend)
}
