package sanitize

import "testing"

func TestTextStripsTagsAndCollapses(t *testing.T) {
	got := Text("  <b>Para-choque</b>   dianteiro \n")
	if got != "Para-choque dianteiro" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestKeyIgnoresCaseAndSpacing(t *testing.T) {
	if Key("Farol  Esquerdo") != Key(" farol esquerdo ") {
		t.Fatal("expected equal keys")
	}
}

func TestMultilineTextKeepsLineBreaks(t *testing.T) {
	got := MultilineText("linha 1  \r\nlinha <i>2</i>")
	if got != "linha 1\nlinha 2" {
		t.Fatalf("unexpected text %q", got)
	}
}
