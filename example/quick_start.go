package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/nyan233/pagedb"
)

func main() {
	opt := pagedb.DefaultOptions()
	opt.Write = true
	opt.Create = true
	opt.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	// create file with path is quick_start.db
	db, err := pagedb.Open("quick_start.db", opt)
	if err != nil {
		panic(err)
	}
	store := pagedb.NewStore[uint64, string](db, new(pagedb.Uint64Codec), new(pagedb.StringCodec))
	for i := uint64(0); i < 64; i++ {
		if err = store.Put(i, "value-"+strconv.FormatUint(i, 10)); err != nil {
			panic(fmt.Errorf("put err:%v", err))
		}
	}
	// move the upper half of the key space into its own directory
	lo, _ := new(pagedb.Uint64Codec).Marshal(ptr(uint64(32)))
	hi, _ := new(pagedb.Uint64Codec).Marshal(ptr(uint64(63)))
	if err = db.Mkdir(lo, hi); err != nil {
		panic(fmt.Errorf("mkdir err:%v", err))
	}
	for _, k := range []uint64{0, 31, 32, 63, 64} {
		v, found, err := store.Get(k)
		if err != nil {
			panic(fmt.Errorf("get err:%v", err))
		}
		fmt.Printf("get key=%d, found=%v, val=%s\n", k, found, v)
	}
	fmt.Printf("stat: %+v\n", db.Stat())
	if err = db.Close(); err != nil {
		panic(fmt.Errorf("close err:%v", err))
	}
}

func ptr[T any](v T) *T {
	return &v
}
