package encoding

import "testing"

func TestEscapeXML(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Hello World", "Hello World"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{"a < b", "a &lt; b"},
		{"a > b", "a &gt; b"},
		{`He said "hello"`, "He said &#34;hello&#34;"},
		{"it's", "it&#39;s"},
		{`<tag attr="value">content & more</tag>`, "&lt;tag attr=&#34;value&#34;&gt;content &amp; more&lt;/tag&gt;"},
		{"日本語 & émoji 🎉", "日本語 &amp; émoji 🎉"},
	}

	for _, tt := range tests {
		if got := EscapeXML(tt.in); got != tt.want {
			t.Errorf("EscapeXML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeXMLText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Hello World", "Hello World"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{"a < b", "a &lt; b"},
		{"a > b", "a &gt; b"},
		{`He said "hello"`, `He said "hello"`}, // quotes stay bare in text nodes
		{"<script>&</script>", "&lt;script&gt;&amp;&lt;/script&gt;"},
	}

	for _, tt := range tests {
		if got := EscapeXMLText(tt.in); got != tt.want {
			t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Hello World", "Hello World"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{`He said "hello"`, "He said &quot;hello&quot;"},
		{`<tag attr="val&ue">`, "&lt;tag attr=&quot;val&amp;ue&quot;&gt;"},
	}

	for _, tt := range tests {
		if got := EscapeXMLAttr(tt.in); got != tt.want {
			t.Errorf("EscapeXMLAttr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNeedsNewickQuoting(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Firmicutes", false},
		{"Lachnospiraceae_Clostridiales", false}, // underscores are fine bare
		{"Blautia producta", true},
		{"clade(1)", true},
		{"Eubacterium[G6]", true},
		{"node:1", true},
		{"a;b", true},
		{"a,b", true},
		{"O'Hara", true},
		{"a\tb", true},
	}

	for _, tt := range tests {
		if got := NeedsNewickQuoting(tt.in); got != tt.want {
			t.Errorf("NeedsNewickQuoting(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEscapeNewick(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Clostridia", "Clostridia"},
		{"parent1_Dorea", "parent1_Dorea"},
		{"Blautia producta", "'Blautia producta'"},
		{"clade(1)", "'clade(1)'"},
		{"O'Hara", "'O''Hara'"}, // embedded quote doubles
		{"d'Herelle phage", "'d''Herelle phage'"},
		{"a:b,c;d", "'a:b,c;d'"},
	}

	for _, tt := range tests {
		if got := EscapeNewick(tt.in); got != tt.want {
			t.Errorf("EscapeNewick(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
