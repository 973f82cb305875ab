// Package constants provides shared constants for the loan-consult application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// PercentTolerance is the absolute tolerance for principal/interest share sums
	PercentTolerance = 1e-6

	// RelativeTolerance is the relative tolerance for total-amount reconciliation
	RelativeTolerance = 1e-9

	// CurrencyTolerance is the tolerance for currency comparisons (1 paisa)
	CurrencyTolerance = 0.01

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// MaxTenureMonths is the largest tenure accepted from text input
	MaxTenureMonths = 1<<31 - 1

	// MaxScheduleMonths bounds amortization schedules to 100 years of rows
	MaxScheduleMonths = 1200

	// MaxAmountDigits bounds the integer digits of a free-text money amount
	MaxAmountDigits = 15
)

// Calculator input ranges offered by the web calculator.
const (
	MinLoanAmount   = 50_000.0
	MaxLoanAmount   = 50_000_000.0
	LoanAmountStep  = 50_000.0
	MinInterestRate = 6.0
	MaxInterestRate = 25.0
	InterestStep    = 0.1
	MinTenureYears  = 1
	MaxTenureYears  = 30

	// Values the calculator page opens with.
	DefaultLoanAmount   = 2_500_000.0
	DefaultInterestRate = 8.5
	DefaultTenureYears  = 20
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Display grouping styles
const (
	// GroupingIndian groups the last three digits then every two ("25,00,000")
	GroupingIndian = "indian"

	// GroupingInternational groups every three digits ("2,500,000")
	GroupingInternational = "international"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of config.yaml keys
	EnvPrefix = "LOANCONSULT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRateLimitRequests is the number of submissions allowed per window per client
	DefaultRateLimitRequests = 5

	// DefaultRateLimitWindow is the refill window for submission rate limiting
	DefaultRateLimitWindow = "1m"
)

// Lead defaults
const (
	// DefaultCity is used when a consultation request omits the city
	DefaultCity = "Mumbai"

	// DefaultStoreDriver is the lead store used when none is configured
	DefaultStoreDriver = "memory"

	// DefaultSQLitePath is where the sqlite lead store lives when no path is configured
	DefaultSQLitePath = "data/leads.db"

	// DefaultRedisPrefix namespaces the redis lead store keys
	DefaultRedisPrefix = "loanconsult"
)
