package appointment

import "github.com/m04kA/SMC-SalonCalendar/pkg/dbmetrics"

// DBExecutor переиспользуем интерфейс из dbmetrics; подходят *sql.DB и *dbmetrics.DB
type DBExecutor = dbmetrics.DBExecutor
