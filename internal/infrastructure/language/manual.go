package language

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const English = "en"

type scriptRange struct {
	lang   string
	lo, hi rune
}

// Checked in order; Marathi and Assamese share Devanagari and Bengali script
// with Hindi and Bengali, so they are never returned by detection.
var scripts = []scriptRange{
	{"hi", 0x0900, 0x097F},
	{"bn", 0x0980, 0x09FF},
	{"te", 0x0C00, 0x0C7F},
	{"ta", 0x0B80, 0x0BFF},
	{"gu", 0x0A80, 0x0AFF},
	{"kn", 0x0C80, 0x0CFF},
	{"ml", 0x0D00, 0x0D7F},
	{"pa", 0x0A00, 0x0A7F},
	{"or", 0x0B00, 0x0B7F},
}

var supported = map[string]string{
	"en": "English",
	"hi": "हिन्दी (Hindi)",
	"bn": "বাংলা (Bengali)",
	"te": "తెలుగు (Telugu)",
	"mr": "मराठी (Marathi)",
	"ta": "தமிழ் (Tamil)",
	"gu": "ગુજરાતી (Gujarati)",
	"kn": "ಕನ್ನಡ (Kannada)",
	"ml": "മലയാളം (Malayalam)",
	"pa": "ਪੰਜਾਬੀ (Punjabi)",
	"or": "ଓଡିଆ (Odia)",
	"as": "অসমীয়া (Assamese)",
}

var greetings = map[string]string{
	"en": "Hello! I can help you with MSME business setup in India.",
	"hi": "नमस्ते! मैं भारत में MSME व्यवसाय स्थापना में आपकी सहायता कर सकता हूं।",
	"bn": "হ্যালো! আমি ভারতে MSME ব্যবসা স্থাপনায় আপনাকে সাহায্য করতে পারি।",
	"ta": "வணக்கம்! இந்தியாவில் MSME வணிக அமைப்பில் நான் உங்களுக்கு உதவ முடியும்।",
	"te": "హలో! నేను భారతదేశంలో MSME వ్యాపార స్థాపనలో మీకు సహాయం చేయగలను।",
	"gu": "હેલો! હું ભારતમાં MSME વ્યવસાય સેટઅપમાં તમારી સહાય કરી શકું છું।",
	"mr": "नमस्कार! मी भारतात MSME व्यवसाय सेटअपमध्ये तुमची मदत करू शकतो।",
	"kn": "ಹಲೋ! ನಾನು ಭಾರತದಲ್ಲಿ MSME ವ್ಯವಹಾರ ಸ್ಥಾಪನೆಯಲ್ಲಿ ನಿಮಗೆ ಸಹಾಯ ಮಾಡಬಹುದು।",
	"ml": "ഹലോ! ഇന്ത്യയിൽ MSME ബിസിനസ് സെറ്റപ്പിൽ എനിക്ക് നിങ്ങളെ സഹായിക്കാൻ കഴിയും।",
	"pa": "ਸਤ ਸ੍ਰੀ ਅਕਾਲ! ਮੈਂ ਭਾਰਤ ਵਿੱਚ MSME ਕਾਰੋਬਾਰ ਸੈੱਟਅਪ ਵਿੱਚ ਤੁਹਾਡੀ ਮਦਦ ਕਰ ਸਕਦਾ ਹਾਂ।",
}

type phrase struct {
	english     string
	translation string
}

var manualTranslations = map[string][]phrase{
	"hi": {
		{"Business Discovery", "व्यवसाय खोज"},
		{"Compliance & Licensing", "अनुपालन और लाइसेंसिंग"},
		{"Timeline Planning", "समयसीमा योजना"},
		{"Platform Integration", "प्लेटफॉर्म एकीकरण"},
		{"Document Analysis", "दस्तावेज़ विश्लेषण"},
	},
	"bn": {
		{"Business Discovery", "ব্যবসা আবিষ্কার"},
		{"Compliance & Licensing", "সম্মতি এবং লাইসেন্সিং"},
		{"Timeline Planning", "সময়সূচী পরিকল্পনা"},
		{"Platform Integration", "প্ল্যাটফর্ম একীকরণ"},
		{"Document Analysis", "নথি বিশ্লেষণ"},
	},
	"ta": {
		{"Business Discovery", "வணிக கண்டுபிடிப்பு"},
		{"Compliance & Licensing", "இணக்கம் மற்றும் உரிமம்"},
		{"Timeline Planning", "காலவரிசை திட்டமிடல்"},
		{"Platform Integration", "இயங்குதள ஒருங்கிணைப்பு"},
		{"Document Analysis", "ஆவண பகுப்பாய்வு"},
	},
}

const welcomeTemplate = `
🏢 **Business Discovery** - Find the right business structure
📄 **Compliance & Licensing** - Get all required permits
⏰ **Timeline Planning** - Step-by-step business setup
🌐 **Platform Integration** - Digital marketplace guidance
📁 **Document Analysis** - Upload and analyze your business documents

What would you like to explore today? You can ask me anything about starting your MSME business in India!`

var plainEnglish = regexp.MustCompile(`^[a-zA-Z0-9\s.,!?-]+$`)

// Manual implements ports.LanguageService with script-range detection and a
// fixed phrase table. It never calls out of process.
type Manual struct {
	patterns map[string][]*regexp.Regexp
}

func NewManual() *Manual {
	patterns := make(map[string][]*regexp.Regexp, len(manualTranslations))
	for lang, phrases := range manualTranslations {
		for _, p := range phrases {
			patterns[lang] = append(patterns[lang], regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p.english)))
		}
	}
	return &Manual{patterns: patterns}
}

// Detect returns the language code of the first Indic script found in text,
// or English.
func (m *Manual) Detect(text string) string {
	clean := strings.TrimSpace(text)
	if clean == "" || plainEnglish.MatchString(clean) {
		return English
	}
	for _, s := range scripts {
		for _, r := range clean {
			if r >= s.lo && r <= s.hi {
				return s.lang
			}
		}
	}
	return English
}

// Translate substitutes known phrases. Unknown target languages and English
// return the input unchanged.
func (m *Manual) Translate(_ context.Context, text, _ string, to string) string {
	to = Normalize(to)
	if to == English || strings.TrimSpace(text) == "" {
		return text
	}
	phrases, ok := manualTranslations[to]
	if !ok {
		return text
	}
	out := text
	for i, re := range m.patterns[to] {
		out = re.ReplaceAllLiteralString(out, phrases[i].translation)
	}
	return out
}

func (m *Manual) Greeting(lang string) string {
	if g, ok := greetings[Normalize(lang)]; ok {
		return g
	}
	return greetings[English]
}

// WelcomeMessage is the greeting followed by the capability overview,
// translated where a phrase table exists.
func (m *Manual) WelcomeMessage(lang string) string {
	lang = Normalize(lang)
	return m.Greeting(lang) + m.Translate(context.Background(), welcomeTemplate, English, lang)
}

// Name returns the display name used in prompts ("हिन्दी (Hindi)").
func (m *Manual) Name(lang string) string {
	lang = Normalize(lang)
	if name, ok := supported[lang]; ok {
		return name
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return supported[English]
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return supported[English]
}

// Normalize reduces a BCP 47 tag such as "hi-IN" to its base language code.
func Normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return English
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}
