package main

import "C"
import (
	"os"
	"sync"
	"unsafe"

	"github.com/tutils/tdice"
	"github.com/tutils/tdice/cmd"
	"github.com/tutils/tdice/dice"
	"github.com/tutils/tdice/rng"
)

//export RunCmd
func RunCmd(cargs **C.char, size C.int) {
	args := os.Args[:1]
	ptr := unsafe.Pointer(cargs)
	for i := 0; i < int(size); i++ {
		cStrPtr := (**C.char)(unsafe.Pointer(uintptr(ptr) + uintptr(i)*unsafe.Sizeof(uintptr(0))))
		args = append(args, C.GoString(*cStrPtr))
	}
	os.Args = args
	cmd.Execute()
}

type handle struct {
	dc *dice.Context
	r  *tdice.SyncRoller
}

var (
	handlesMu  sync.Mutex
	handles    = map[C.int]*handle{}
	nextHandle C.int
)

func lookup(h C.int) *handle {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	return handles[h]
}

// TDiceNew creates a dice context for the named generator and returns its
// handle, or -1.
//
//export TDiceNew
func TDiceNew(kind *C.char) C.int {
	k, err := rng.ParseKind(C.GoString(kind))
	if err != nil {
		return -1
	}
	dc, err := dice.New(k)
	if err != nil {
		return -1
	}

	handlesMu.Lock()
	defer handlesMu.Unlock()
	nextHandle++
	handles[nextHandle] = &handle{dc: dc, r: tdice.NewSyncRoller(dc)}
	return nextHandle
}

// TDiceRoll stores a pair of dice in d0 and d1. It returns 0 on success.
//
//export TDiceRoll
func TDiceRoll(h C.int, d0, d1 *C.int) C.int {
	hd := lookup(h)
	if hd == nil {
		return -1
	}
	r, err := hd.r.Roll()
	if err != nil {
		return -1
	}
	*d0, *d1 = C.int(r[0]), C.int(r[1])
	return 0
}

// TDiceSeed seeds from a decimal string. It returns 0 on success.
//
//export TDiceSeed
func TDiceSeed(h C.int, seed *C.char) C.int {
	hd := lookup(h)
	if hd == nil {
		return -1
	}
	s := C.GoString(seed)
	err := hd.r.Do(func(tdice.Roller) error {
		return hd.dc.SeedText(s)
	})
	if err != nil {
		return -1
	}
	return 0
}

//export TDiceClose
func TDiceClose(h C.int) {
	handlesMu.Lock()
	hd := handles[h]
	delete(handles, h)
	handlesMu.Unlock()
	if hd != nil {
		hd.r.Do(func(tdice.Roller) error {
			return hd.dc.Close()
		})
	}
}

func main() {}
