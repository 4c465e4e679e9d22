package provider

// ModelType identifies a data category a provider can fetch. Each ModelType
// fixes the concrete type carried in FetchResult.Data.
type ModelType string

// --- Company ---
const (
	ModelCompanyInfo    ModelType = "CompanyInfo"    // models.CompanyProfile (fields may be partial)
	ModelNameRegistry   ModelType = "NameRegistry"   // map[string]string, code → name
	ModelMarketSnapshot ModelType = "MarketSnapshot" // models.Quote
)

// --- Fundamentals ---
const (
	ModelBalanceSheet      ModelType = "BalanceSheet"      // *models.Statement
	ModelIncomeStatement   ModelType = "IncomeStatement"   // *models.Statement
	ModelCashFlowStatement ModelType = "CashFlowStatement" // *models.Statement
	ModelFinancialAbstract ModelType = "FinancialAbstract" // *models.Statement
	ModelDividends         ModelType = "Dividends"         // []models.Dividend
)

// --- Market ---
const (
	ModelPriceHistory       ModelType = "PriceHistory"       // []models.PriceBar
	ModelNorthbound         ModelType = "Northbound"         // []models.NorthboundHolding
	ModelTopHolders         ModelType = "TopHolders"         // []models.Shareholder
	ModelValuationIndicator ModelType = "ValuationIndicator" // models.ValuationSnapshot
	ModelDailyIndicator     ModelType = "DailyIndicator"     // models.ValuationSnapshot
)

// AllModels returns every model type in display order.
func AllModels() []ModelType {
	return []ModelType{
		ModelCompanyInfo, ModelNameRegistry, ModelMarketSnapshot,
		ModelBalanceSheet, ModelIncomeStatement, ModelCashFlowStatement, ModelFinancialAbstract, ModelDividends,
		ModelPriceHistory, ModelNorthbound, ModelTopHolders, ModelValuationIndicator, ModelDailyIndicator,
	}
}
