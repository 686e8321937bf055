package api

// ColumnInfo описывает колонку view
type ColumnInfo struct {
	ID        string `json:"id"`                  // идентификатор колонки
	Label     string `json:"label"`               // заголовок для отображения
	Type      string `json:"type"`                // тип значения (STRING, INTEGER, ...)
	Precision int    `json:"precision,omitempty"` // общее количество цифр
	Scale     int    `json:"scale,omitempty"`     // количество цифр после запятой
	Nullable  bool   `json:"nullable"`            // допускает пустые значения
	ReadOnly  bool   `json:"read_only"`           // не редактируется клиентом
}

// ViewsResponse представляет ответ со списком доступных view
type ViewsResponse struct {
	Views []string `json:"views"`
}

// ColumnsResponse представляет ответ со списком колонок view
type ColumnsResponse struct {
	View    string       `json:"view"`
	Columns []ColumnInfo `json:"columns"`
}

// QueryRequest представляет запрос на выборку строк view
type QueryRequest struct {
	View   string `json:"view"`             // имя view
	Filter string `json:"filter,omitempty"` // текстовое условие отбора
	Offset int    `json:"offset,omitempty"` // количество пропускаемых строк
	Limit  int    `json:"limit,omitempty"`  // максимальное количество строк (0 - без ограничения)
}

// QueryResponse представляет ответ с набором строк
type QueryResponse struct {
	RowSet string `json:"row_set"` // сериализованный набор строк
	Total  int    `json:"total"`   // количество строк, удовлетворяющих условию
}

// SaveRequest представляет запрос на сохранение изменений
type SaveRequest struct {
	Changes string `json:"changes"` // сериализованный набор измененных строк
}

// SaveResponse представляет ответ с актуальными строками после сохранения
type SaveResponse struct {
	Update string `json:"update"` // сериализованный набор строк от сервера
}

// ConflictResponse представляет ответ при конфликте версий
type ConflictResponse struct {
	Message string  `json:"message"`
	RowIDs  []int64 `json:"row_ids"` // строки, версия которых устарела
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse представляет ответ проверки состояния сервера
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Views   int    `json:"views"` // количество доступных view
}
