// Package api содержит HTTP API сервер gateway.
//
// Структура:
//   - handler.go          — Handler с DI (gateway, health, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - submit_handler.go   — приём работы (/reverse, /text)
//   - workflow_handler.go — статус instance (/workflows/{id})
//   - health_handler.go   — агрегированное здоровье (/health)
//
// API — синхронный фасад над durable-выполнением: запрос блокируется
// до завершения instance или таймаута ожидания.
package api
