package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/gogpu/gpucontext"
)

// X keysyms (X11/keysymdef.h) with a gpucontext equivalent.
const (
	xkSpace     xproto.Keysym = 0x0020
	xkBackSpace xproto.Keysym = 0xff08
	xkTab       xproto.Keysym = 0xff09
	xkReturn    xproto.Keysym = 0xff0d
	xkEscape    xproto.Keysym = 0xff1b
	xkHome      xproto.Keysym = 0xff50
	xkLeft      xproto.Keysym = 0xff51
	xkUp        xproto.Keysym = 0xff52
	xkRight     xproto.Keysym = 0xff53
	xkDown      xproto.Keysym = 0xff54
	xkPageUp    xproto.Keysym = 0xff55
	xkPageDown  xproto.Keysym = 0xff56
	xkEnd       xproto.Keysym = 0xff57
	xkInsert    xproto.Keysym = 0xff63
	xkKPEnter   xproto.Keysym = 0xff8d
	xkF1        xproto.Keysym = 0xffbe
	xkF12       xproto.Keysym = 0xffc9
	xkDelete    xproto.Keysym = 0xffff
)

var specialKeys = map[xproto.Keysym]gpucontext.Key{
	xkSpace:     gpucontext.KeySpace,
	xkBackSpace: gpucontext.KeyBackspace,
	xkTab:       gpucontext.KeyTab,
	xkReturn:    gpucontext.KeyEnter,
	xkKPEnter:   gpucontext.KeyNumpadEnter,
	xkEscape:    gpucontext.KeyEscape,
	xkHome:      gpucontext.KeyHome,
	xkEnd:       gpucontext.KeyEnd,
	xkLeft:      gpucontext.KeyLeft,
	xkUp:        gpucontext.KeyUp,
	xkRight:     gpucontext.KeyRight,
	xkDown:      gpucontext.KeyDown,
	xkPageUp:    gpucontext.KeyPageUp,
	xkPageDown:  gpucontext.KeyPageDown,
	xkInsert:    gpucontext.KeyInsert,
	xkDelete:    gpucontext.KeyDelete,
}

// KeyFromKeysym maps an X keysym to a key. Letters map regardless of case.
// Unmapped keysyms return gpucontext.KeyUnknown.
func KeyFromKeysym(sym xproto.Keysym) gpucontext.Key {
	switch {
	case sym >= 'a' && sym <= 'z':
		return gpucontext.KeyA + gpucontext.Key(sym-'a')
	case sym >= 'A' && sym <= 'Z':
		return gpucontext.KeyA + gpucontext.Key(sym-'A')
	case sym >= '0' && sym <= '9':
		return gpucontext.Key0 + gpucontext.Key(sym-'0')
	case sym >= xkF1 && sym <= xkF12:
		return gpucontext.KeyF1 + gpucontext.Key(sym-xkF1)
	}
	if k, ok := specialKeys[sym]; ok {
		return k
	}
	return gpucontext.KeyUnknown
}
