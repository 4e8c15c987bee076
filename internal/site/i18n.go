package site

// labels are the navigation strings per interface language.
var labels = map[string]map[string]string{
	"en": {"home": "Home", "capabilities": "Capabilities", "pricing": "Pricing", "blog": "Blog", "app": "Open app", "calc": "Calculate"},
	"de": {"home": "Start", "capabilities": "Funktionen", "pricing": "Preise", "blog": "Blog", "app": "App öffnen", "calc": "Berechnen"},
	"es": {"home": "Inicio", "capabilities": "Funciones", "pricing": "Precios", "blog": "Blog", "app": "Abrir app", "calc": "Calcular"},
}

func labelsFor(lang string) map[string]string {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels["en"]
}
