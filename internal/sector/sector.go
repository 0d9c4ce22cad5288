package sector

import "strings"

// sectors maps the liquid IDX tickers to their industry groups.
var sectors = map[string]string{
	"BBCA": "Banking",
	"BBRI": "Banking",
	"BMRI": "Banking",
	"BBNI": "Banking",
	"BRIS": "Banking",
	"TLKM": "Telecommunication",
	"ISAT": "Telecommunication",
	"EXCL": "Telecommunication",
	"FREN": "Telecommunication",
	"ASII": "Automotive",
	"AUTO": "Automotive",
	"UNVR": "Consumer Goods",
	"INDF": "Consumer Goods",
	"ICBP": "Consumer Goods",
	"KLBF": "Consumer Goods",
	"MYOR": "Consumer Goods",
	"SMGR": "Cement",
	"INTP": "Cement",
	"PGAS": "Energy",
	"MEDC": "Energy",
	"ADRO": "Mining",
	"PTBA": "Mining",
	"ANTM": "Mining",
	"INCO": "Mining",
	"TINS": "Mining",
	"GGRM": "Tobacco",
	"HMSP": "Tobacco",
	"BSDE": "Property",
	"CTRA": "Property",
	"PWON": "Property",
	"WIKA": "Infrastructure",
	"PTPP": "Infrastructure",
	"ADHI": "Infrastructure",
	"JSMR": "Infrastructure",
	"GOTO": "Technology",
	"BUKA": "Technology",
	"EMTK": "Technology",
}

// Classify resolves a ticker to its sector. Unknown tickers fall through a
// few prefix heuristics before landing in Others.
func Classify(symbol, name string) string {
	if s, ok := sectors[symbol]; ok {
		return s
	}
	upper := strings.ToUpper(name)
	switch {
	case len(symbol) == 4 && strings.HasPrefix(symbol, "B"):
		return "Banking"
	case len(symbol) == 4 && strings.HasPrefix(symbol, "S"):
		return "Cement"
	case len(symbol) == 4 && strings.HasPrefix(symbol, "T"):
		return "Telecommunication"
	case strings.Contains(upper, "AUTO") || strings.Contains(upper, "MOTOR"):
		return "Automotive"
	case strings.Contains(upper, "MINING") || strings.Contains(upper, "TAMBANG"):
		return "Mining"
	}
	return "Others"
}
