package backend

import "testing"

func TestFourCCString(t *testing.T) {
	tests := []struct {
		f    FourCC
		want string
	}{
		{FourCCABGR8888, "AB24"},
		{FourCCXBGR8888, "XB24"},
		{FourCCARGB8888, "AR24"},
		{FourCC(0), "FourCC(0x00000000)"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("FourCC(0x%08x).String() = %q, want %q", uint32(tt.f), got, tt.want)
		}
	}
	if FourCCABGR8888 != 0x34324241 {
		t.Errorf("FourCCABGR8888 = 0x%08x, want 0x34324241", uint32(FourCCABGR8888))
	}
}

func TestModifierSplit(t *testing.T) {
	lo, hi := Modifier(0x0100000000000002).Split()
	if lo != 2 || hi != 0x01000000 {
		t.Errorf("Split() = (0x%x, 0x%x), want (0x2, 0x1000000)", lo, hi)
	}
	if got := ModifierLinear.String(); got != "LINEAR" {
		t.Errorf("ModifierLinear.String() = %q", got)
	}
}

func TestErrorStrings(t *testing.T) {
	if got := EGLErrorString(EGL_BAD_MATCH); got != "EGL_BAD_MATCH" {
		t.Errorf("EGLErrorString(EGL_BAD_MATCH) = %q", got)
	}
	if got := EGLErrorString(0x1234); got != "EGL error 0x1234" {
		t.Errorf("EGLErrorString(0x1234) = %q", got)
	}
	if got := GLErrorString(GL_INVALID_OPERATION); got != "GL_INVALID_OPERATION" {
		t.Errorf("GLErrorString(GL_INVALID_OPERATION) = %q", got)
	}
}
