// Package lock реализует опциональный distributed leader lock поверх
// Postgres advisory locks (pg_try_advisory_lock / pg_advisory_unlock).
//
// Это не консенсус-протокол: он гарантирует лишь, что не более одного
// процесса в любой момент держит данный lock key, пока у него есть живое
// соединение с БД. При обрыве соединения lock освобождается сервером
// автоматически (advisory lock привязан к сессии), и другой процесс
// может его перехватить. Этого достаточно, чтобы несколько реплик
// espresso-scheduler не дублировали диспетчеризацию одних и тех же job'ов;
// использование лока полностью опционально — без него каждый процесс
// просто считает себя лидером.
package lock
