package config

type WorkerKeyStruct struct {
	PersistMessagesQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistMessagesQueue: "persist_messages_queue",
}
