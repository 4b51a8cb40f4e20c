package dialog

// Source-language texts. Everything here is rendered through the
// localization gateway before sending, so these stay in Russian.

const welcomeText = "Приветствуем вас в АН “Condor Real Estates”!\n\n" +
	"Мы рады приветствовать вас в нашем Telegram-боте! Наша инвестиционная компания специализируется на недвижимости на Бали, предоставляя вам уникальные возможности для выгодных вложений в один из самых живописных уголков мира.\n\n" +
	"Мы предлагаем широкий спектр услуг, включая покупку, продажу и аренду недвижимости, а также консультации по инвестициям и управлению объектами. Наши эксперты всегда готовы помочь вам найти наилучшие решения для достижения ваших финансовых целей.\n\n" +
	"С чего вам начать ⁉️\n" +
	"➡️Пройти опрос, чтобы мы смогли подобрать вам варианты недвижимости под ваш запрос и вы наглядно увидели, что можете получить на ваш бюджет.\n➡️Следите за нашими обновлениями, получайте актуальную информацию о новых объектах и специальных предложениях, а также задавайте вопросы — мы всегда на связи и готовы помочь!\n\n" +
	"Спасибо, что выбрали нас. Давайте вместе создадим Ваше успешное будущее на Бали!\n\n" +
	"⬇️Сделайте свой выбор⬇️"

const (
	btnQuestionnaire = "Анкета"
	btnExpertHelp    = "Экспертная помощь с недвижимостью"
	btnAbout         = "О нас"
	btnStrategies    = "Стратегии инвестирования"
	btnRental        = "Стратегия аренды"
	btnResale        = "Стратегия перепродажи"
	btnLease         = "Аренда с последующей перепродажей"
	btnMainMenu      = "Просмотреть стартовое сообщение"
	btnResumeForm    = "Продолжить заполнение анкеты"
)

const (
	intakeDescription = "Экспертная помощь с недвижимостью"

	promptEmail        = "Пожалуйста, укажите ваш адрес электронной почты:"
	promptEmailInvalid = "Неверный формат email. Пожалуйста, укажите действительный адрес электронной почты:"
	promptPhone        = "Отлично! Теперь, пожалуйста, укажите ваш номер телефона, начиная с символа \"+\" и кода страны."
	promptPhoneInvalid = "Неверный формат номера телефона. Пожалуйста, укажите действительный номер телефона, начиная с \"+\" и содержащий только цифры."
	promptFIO          = "Спасибо за информацию о вашем номере телефона! Теперь напишите ваше имя, фамилию и отчество."

	intakeDoneText = "Наши консультанты свяжутся с вами в ближайшее время, чтобы обсудить ваши цели и предложить наиболее подходящие варианты инвестиций.\n\n Пока Вы ждете ответа наших консультантов, можете просмотреть другую информацию в нашем боте⬇️"
)

const (
	detailPromptText = "Пожалуйста, опишите ваши особые требования к недвижимости."

	questionnaireDoneText = "Спасибо за заполнение анкеты. Мы скоро с вами свяжемся.\n\n Чтобы увидеть стратегии дохода или вернуться к стартовому сообщению нажмите на кнопки ниже"
)

const strategiesMenuText = "Стратегии инвестирования в недвижимость на Бали\n\n" +
	"1. Стратегия аренды\n" +
	"2. Стратегия перепродажи\n" +
	"3. Аренда с последующей перепродажей\n\n" +
	"⬇️Чтобы узнать больше о каждой из этих стратегий, нажмите на кнопку соответствующей стратегии ниже⬇️"

const rentalStrategyText = "<b>1. Стратегия аренды</b>\n\n" +
	"<b>Описание:</b> Стратегия аренды предполагает покупку недвижимости с целью её последующей сдачи в аренду для получения регулярного дохода. Этот подход подходит для инвесторов, которые ищут стабильный и предсказуемый доход от своего вложения.\n\n" +
	"<b>Преимущества:</b>\n    • Регулярный поток доходов от аренды.\n    • Возможность увеличения арендной платы в зависимости от рыночных условий.\n    • Недвижимость остается в собственности, что позволяет воспользоваться приростом её стоимости в будущем.\n\n" +
	"<b>Риски:</b>\n    • Необходимость управления недвижимостью (поиск арендаторов, техническое обслуживание и ремонт).\n    • Возможность временных периодов без арендаторов.\n    • Изменение рыночных условий, которые могут повлиять на уровень арендной платы.\n\n" +
	"<b>Пример расчета:</b>\n    • Цена апартаментов: $150,000\n    • Дневная арендная плата: $120\n    • Средняя заполняемость: 70% (255 дней в году)\n    • Годовой доход: 255 дней * $120 = $30,600\n    • Годовые расходы на обслуживание (10%): $3,060\n    • Чистый годовой доход: $27,540\n    • Годовая доходность: 18.36%\n\n"

const resaleStrategyText = "<b>2. Стратегия перепродажи</b>\n\n" +
	"<b>Описание:</b> Стратегия перепродажи предполагает покупку недвижимости с целью её последующей продажи по более высокой цене. Это подход для инвесторов, которые ищут возможность получения единовременной прибыли от изменения стоимости недвижимости.\n\n" +
	"<b>Преимущества:</b>\n    • Возможность значительного увеличения капитала при успешной перепродаже.\n    • Нет необходимости в управлении недвижимостью в долгосрочной перспективе.\n\n" +
	"<b>Риски:</b>\n    • Зависимость от рыночных условий и колебаний цен на недвижимость.\n    • Расходы на продажу (комиссии, налоги и другие сборы).\n    • Возможные временные затраты на продажу недвижимости.\n\n" +
	"<b>Пример расчета:</b>\n    • Цена апартаментов: $150,000\n    • Ожидаемая цена продажи через год: $172,000\n    • Расходы на продажу (5%): $8,600\n    • Чистый доход от перепродажи: $13,400\n    • Годовая доходность: 8.93%\n\n"

const leaseStrategyText = "<b>3. Аренда с последующей перепродажей</b>\n\n" +
	"<b>Описание:</b> Комбинированная стратегия включает в себя сдачу недвижимости в аренду на определенный период с последующей продажей. Этот подход позволяет инвестору получать текущий доход от аренды, а затем извлечь прибыль от прироста стоимости недвижимости.\n\n" +
	"<b>Преимущества:</b>\n    • Возможность получения двойного дохода: текущего от аренды и капитального от перепродажи.\n    • Более высокая совокупная доходность.\n\n" +
	"<b>Риски:</b>\n    • Необходимость управления недвижимостью на этапе аренды.\n    • Возможные изменения рыночных условий, которые могут повлиять как на арендную плату, так и на цену продажи.\n    • Расходы на продажу (комиссии, налоги и другие сборы).\n\n" +
	"<b>Пример расчета:</b>\n    • Цена апартаментов: $150,000\n    • Дневная арендная плата: $120\n    • Средняя заполняемость: 70% (255 дней в году)\n    • Годовой доход от аренды: $27,540\n    • Ожидаемая цена продажи через год: $172,000\n    • Расходы на продажу (5%): $8,600\n    • Чистый доход от перепродажи: $13,400\n    • Совокупный годовой доход: $40,940\n    • Совокупная годовая доходность: 27.29%\n\n"

const (
	recoverQuestionnaireText = "Приносим свои извинения, бот снова онлайн, пройдите форму дальше с того момента, где Вы ее закончили, или начните сначала"
	recoverStrategiesText    = "Приносим свои извинения, бот снова онлайн, если вы желаете просмотреть статегии инвестирования, то нажмите на соответствующую кнопку ниже, или начните сначала"
	recoverIntakeText        = "Приносим свои извинения, бот снова онлайн, пройдите форму заново еще раз нажав на соответствующую кнопку, или начните сначала"
)
