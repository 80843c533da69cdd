package morphology

func russianFunctionWords() map[string]PartOfSpeech {
	groups := map[PartOfSpeech][]string{
		Preposition: {
			"без", "безо", "близ", "в", "во", "вместо", "вне", "внутри", "вдоль", "возле",
			"вокруг", "вопреки", "впереди", "вследствие", "для", "до", "за", "из", "изо",
			"к", "ко", "кроме", "между", "меж", "мимо", "на", "над", "надо", "насчет",
			"насчёт", "о", "об", "обо", "около", "от", "ото", "перед", "передо", "по",
			"под", "подо", "позади", "помимо", "после", "посреди", "при", "про", "против",
			"ради", "с", "со", "сквозь", "среди", "у", "через", "сверх", "согласно",
			"благодаря", "навстречу", "поверх", "подле", "путем", "путём",
		},
		Conjunction: {
			"а", "и", "или", "но", "да", "либо", "зато", "однако", "тоже", "также",
			"если", "когда", "чтобы", "хотя", "хоть", "будто", "словно", "точно", "пока",
			"едва", "поскольку", "потому", "поэтому", "причем", "причём", "притом",
			"ибо", "раз", "нежели", "как", "что", "чем", "тогда", "ежели", "дабы",
			"затем", "итак", "значит", "впрочем", "именно",
		},
		Interjection: {
			"ах", "ох", "эх", "ух", "ой", "ай", "увы", "ура", "браво", "алло", "эй",
			"ого", "ага", "ну", "фу", "тсс", "ахти", "батюшки", "господи", "караул",
			"спасибо", "пожалуйста", "здравствуйте", "привет",
		},
		Pronoun: {
			"я", "ты", "он", "она", "оно", "мы", "вы", "они", "меня", "мне", "мной",
			"мною", "тебя", "тебе", "тобой", "тобою", "его", "него", "ему", "нему",
			"им", "ним", "нем", "нём", "ее", "её", "нее", "неё", "ей", "ней", "нею",
			"нас", "нам", "нами", "вас", "вам", "вами", "их", "них", "ими", "ними",
			"себя", "себе", "собой", "собою",
			"мой", "моя", "мое", "моё", "мои", "моего", "моей", "моих", "твой", "твоя",
			"твое", "твоё", "твои", "наш", "наша", "наше", "наши", "нашего", "нашей",
			"наших", "ваш", "ваша", "ваше", "ваши", "вашего", "вашей", "ваших",
			"свой", "своя", "свое", "своё", "свои", "своего", "своей", "своих",
			"этот", "эта", "это", "эти", "этого", "этой", "этому", "этим", "этих",
			"этими", "тот", "та", "то", "те", "того", "той", "тому", "тем", "тех",
			"теми", "такой", "такая", "такое", "такие", "таков", "какой", "какая",
			"какое", "какие", "каков", "который", "которая", "которое", "которые",
			"которого", "которой", "которых", "которым", "кто", "кого", "кому", "кем",
			"ком", "чего", "чему", "чём", "весь", "вся", "всё", "все", "всего",
			"всей", "всем", "всех", "всеми", "сам", "сама", "само", "сами", "самого",
			"самой", "самих", "каждый", "каждая", "каждое", "каждые", "любой", "любая",
			"любое", "любые", "никто", "ничто", "ничего", "никого", "некто", "нечто",
			"некого", "нечего", "иной", "иная", "иное", "иные", "чей", "чья", "чьё",
			"чье", "чьи", "сей", "сия", "сие", "сии", "столько", "сколько", "несколько",
			"некоторый", "некоторая", "некоторое", "некоторые",
		},
		Particle: {
			"не", "ни", "бы", "б", "ли", "ль", "же", "ж", "вот", "вон", "даже", "ведь",
			"уж", "уже", "еще", "ещё", "лишь", "только", "пусть", "пускай", "давай",
			"давайте", "разве", "неужели", "неужто", "якобы", "мол", "дескать", "авось",
			"почти", "вроде", "никак", "нет", "ага", "угу",
		},
	}

	words := make(map[string]PartOfSpeech)
	for part, list := range groups {
		for _, w := range list {
			if _, exists := words[w]; !exists {
				words[w] = part
			}
		}
	}
	return words
}
