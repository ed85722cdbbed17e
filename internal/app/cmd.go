package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は孤立Todoスイープのワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーマのマイグレーションを実行することを示す。
	// MongoDBの場合はインデックスを作成する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandToken はローカル開発用のHS256トークンを発行する。
	CommandToken Command = "token"
	// CommandHabit はローカルの習慣トラッカーを操作する。
	CommandHabit Command = "habit"
	// CommandBoards はAPIからボードと選択中ボードのTodoを取得して表示する。
	CommandBoards Command = "boards"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "token":
		return CommandToken
	case "habit":
		return CommandHabit
	case "boards":
		return CommandBoards
	default:
		return CommandServe
	}
}
