package mocks

//go:generate mockery --name AggregateProcedure --srcpkg github.com/atacado-lab/sales-analytics/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
