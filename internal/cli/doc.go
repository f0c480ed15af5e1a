// Package cli реализует инструмент командной строки Textflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Textflow API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для отправки текста на обработку и проверки
// статуса instances.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Textflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	completion, err := client.Reverse("Hello World")
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: textflow health --json | jq .
//
// ## Commands
//
// Cobra-команды:
//   - reverse:  отправить текст на разворот и дождаться результата
//   - text:     отправить текст на обработку (summarize, rephrase, ...)
//   - workflow: показать состояние instance по id
//   - health:   агрегированное здоровье зависимостей
//
// Каждая команда создаётся через фабричную функцию (NewReverseCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
