package optimizer

import "tychoorderbook/internal/apperr"

var (
	errNoPools        = apperr.New(apperr.CodeSimError, "no candidate pools supplied to optimizer")
	errNoQuotablePool = apperr.New(apperr.CodeSimError, "no pool could quote the requested input amount")
)
