package idx

// FallbackSymbols are the liquid tickers used when the upstream is down and
// no cached run exists. Matches the popular-stock list served as a last
// resort.
var FallbackSymbols = []string{
	"BBCA", "BBRI", "BMRI", "TLKM", "ASII",
	"UNVR", "ICBP", "KLBF", "INDF", "GGRM",
	"SMGR", "PGAS", "ADRO", "ITMG", "PTBA",
}
